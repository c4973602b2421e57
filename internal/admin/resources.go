// Package admin holds the console configuration: per-resource listing
// metadata, the create/edit form field sets and the computed presentation
// fields. Handlers consume these definitions; nothing here touches the store.
package admin

import "strings"

// Field describes a single form field shown by the console.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
	ReadOnly bool   `json:"read_only"`
}

// FormView is a named, fixed set of fields for one mode of a form.
type FormView struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// ProtocolCreateView lists the fields an operator fills in when opening a
// protocol. The responsible technician is never operator-editable; it is
// shown read-only and assigned by the service.
var ProtocolCreateView = FormView{
	Name: "protocol_create",
	Fields: []Field{
		{Name: "client_id", Label: "Client", Kind: "select"},
		{Name: "device_id", Label: "Device", Kind: "select", Required: true},
		{Name: "description", Label: "Problem Description", Kind: "textarea", Required: true},
		{Name: "buic", Label: "BUIC", Kind: "text"},
		{Name: "mqtt_topic", Label: "MQTT Topic", Kind: "text"},
		{Name: "example_payload", Label: "Example Payload", Kind: "textarea"},
		{Name: "status", Label: "Status", Kind: "select"},
		{Name: "initial_update", Label: "First Update", Kind: "textarea"},
	},
}

// ProtocolEditView lists the fields editable on an existing protocol.
var ProtocolEditView = FormView{
	Name: "protocol_edit",
	Fields: []Field{
		{Name: "client_id", Label: "Client", Kind: "select"},
		{Name: "device_id", Label: "Device", Kind: "select", Required: true},
		{Name: "description", Label: "Problem Description", Kind: "textarea", Required: true},
		{Name: "buic", Label: "BUIC", Kind: "text"},
		{Name: "mqtt_topic", Label: "MQTT Topic", Kind: "text"},
		{Name: "example_payload", Label: "Example Payload", Kind: "textarea"},
		{Name: "status", Label: "Status", Kind: "select"},
		{Name: "technician_id", Label: "Responsible Technician", Kind: "text", ReadOnly: true},
	},
}

// ProtocolFormView selects the field set by form mode.
func ProtocolFormView(editing bool) FormView {
	if editing {
		return ProtocolEditView
	}
	return ProtocolCreateView
}

// Site is the static console chrome handed out at startup.
type Site struct {
	Title  string `json:"title"`
	Header string `json:"header"`
}

const (
	// OnlineIndicatorUp marks a device flagged online in listings.
	OnlineIndicatorUp = "green"
	// OnlineIndicatorDown marks a device flagged offline.
	OnlineIndicatorDown = "red"

	shortDescriptionMax = 50
)

// OnlineIndicator maps the online flag to the colored console marker.
func OnlineIndicator(online bool) string {
	if online {
		return OnlineIndicatorUp
	}
	return OnlineIndicatorDown
}

// ShortDescription truncates a protocol description for list rows,
// appending an ellipsis when the text was cut.
func ShortDescription(description string) string {
	description = strings.TrimSpace(description)
	if len(description) <= shortDescriptionMax {
		return description
	}
	return description[:shortDescriptionMax] + "..."
}

// Pagination resolves page/page_size query values against configured bounds.
type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination clamps raw values to sane bounds.
func NewPagination(page, pageSize, defaultSize, maxSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// Offset returns the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}
