package spclient

import (
	"encoding/json"
	"fmt"
	"time"

	"spscope/domain/sharepoint"
)

// SharePoint OData field selectors for consistent API queries
const (
	SiteFields = `Id,Url`
	WebFields  = `Id,Title,Url`
	ListFields = `Id,Title,ItemCount,BaseTemplate`
	ItemFields = `Id,GUID,Title,FileRef,Modified`
)

// SiteApiResponse represents the site collection returned by /_api/site
type SiteApiResponse struct {
	ID  string `json:"Id"`
	URL string `json:"Url"`
}

// WebApiResponse represents a web returned by /_api/web
type WebApiResponse struct {
	ID    string `json:"Id"`
	Title string `json:"Title"`
	URL   string `json:"Url"`
}

// ListApiResponse represents a list returned by /_api/web/lists
type ListApiResponse struct {
	ID           string `json:"Id"`
	Title        string `json:"Title"`
	ItemCount    int    `json:"ItemCount"`
	BaseTemplate int    `json:"BaseTemplate"`
}

// ListItemApiResponse represents a SharePoint list item from the Items API
type ListItemApiResponse struct {
	ID       int    `json:"Id"`
	IDAlt    int    `json:"ID"` // sometimes also present as "ID"
	GUID     string `json:"GUID"`
	Title    string `json:"Title"`
	FileRef  string `json:"FileRef"`
	Modified string `json:"Modified"`
}

// Verbose OData envelope: {"d": {...}}
type verboseEnvelope struct {
	D json.RawMessage `json:"d"`
}

// unwrapVerbose returns the payload inside a verbose {"d": ...} envelope,
// or the input unchanged when the response is already minimal.
func unwrapVerbose(b []byte) []byte {
	var env verboseEnvelope
	if err := json.Unmarshal(b, &env); err == nil && len(env.D) > 0 && string(env.D) != "null" {
		return env.D
	}
	return b
}

// decodeItem maps a single item payload to the domain model, keeping every
// returned field in Fields so callers can read columns outside ItemFields.
func decodeItem(b []byte) (*sharepoint.ListItem, error) {
	payload := unwrapVerbose(b)

	var it ListItemApiResponse
	if err := json.Unmarshal(payload, &it); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if it.ID == 0 && it.IDAlt != 0 {
		it.ID = it.IDAlt
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("decode item fields: %w", err)
	}
	delete(fields, "__metadata")

	item := &sharepoint.ListItem{
		ID:      it.ID,
		GUID:    it.GUID,
		Title:   it.Title,
		FileRef: it.FileRef,
		Fields:  fields,
	}
	if it.Modified != "" {
		if modified, err := time.Parse(time.RFC3339, it.Modified); err == nil {
			item.Modified = &modified
		}
	}
	return item, nil
}

func decodeWeb(b []byte) (WebApiResponse, error) {
	var w WebApiResponse
	if err := json.Unmarshal(unwrapVerbose(b), &w); err != nil {
		return WebApiResponse{}, fmt.Errorf("decode web: %w", err)
	}
	return w, nil
}

func decodeList(b []byte) (ListApiResponse, error) {
	var l ListApiResponse
	if err := json.Unmarshal(unwrapVerbose(b), &l); err != nil {
		return ListApiResponse{}, fmt.Errorf("decode list: %w", err)
	}
	return l, nil
}

func decodeSite(b []byte) (SiteApiResponse, error) {
	var s SiteApiResponse
	if err := json.Unmarshal(unwrapVerbose(b), &s); err != nil {
		return SiteApiResponse{}, fmt.Errorf("decode site: %w", err)
	}
	return s, nil
}
