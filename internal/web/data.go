package web

import (
	"html/template"

	"github.com/rohmanhakim/spotcrime/internal/scheduler"
)

// formValues echoes the submitted form back on validation errors.
type formValues struct {
	State    string
	City     string
	InfoType string
	Amount   string
}

type formPage struct {
	Title     string
	Error     string
	Form      formValues
	InfoTypes []scheduler.InfoType
}

type reportPage struct {
	Title  string
	Report *scheduler.Report
	Chart  template.HTML
}

type detailPage struct {
	Title  string
	Source string
	Body   template.HTML
}

type errorPage struct {
	Title string
	Error string
}
