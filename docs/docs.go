// Package docs registers the plotdesk API description with swag
package docs

import (
	"net/http"

	"github.com/swaggo/swag"
)

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/login": {
            "post": {
                "summary": "Admin login; upgrades the bearer session when one is sent",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/login"}}],
                "responses": {"200": {"description": "token and session"}, "401": {"description": "Invalid ID or Password"}}
            }
        },
        "/api/v1/plots": {
            "get": {
                "summary": "Filtered plot gallery with stats",
                "parameters": [{"in": "query", "name": "q", "type": "string"}],
                "responses": {"200": {"description": "plots; degraded=true when the sheet could not be read"}}
            }
        },
        "/api/v1/plots/map": {
            "get": {
                "summary": "Mappable plots as a GeoJSON FeatureCollection",
                "parameters": [{"in": "query", "name": "q", "type": "string"}],
                "responses": {"200": {"description": "feature collection and map centre"}}
            }
        },
        "/api/v1/plots/{index}/inquiry": {
            "get": {
                "summary": "WhatsApp inquiry link for one plot",
                "parameters": [{"in": "path", "name": "index", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "link"}, "404": {"description": "no plot at index"}}
            }
        },
        "/api/v1/session": {
            "post": {"summary": "Start a visitor session", "responses": {"201": {"description": "token and session"}}},
            "get": {"summary": "Current session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "session"}}}
        },
        "/api/v1/session/logout": {
            "post": {"summary": "Drop admin rights", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "session"}}}
        },
        "/api/v1/session/gps": {
            "post": {
                "summary": "Store a GPS fix used to pre-fill new plots",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/gps"}}],
                "responses": {"200": {"description": "session"}, "422": {"description": "coordinates out of range"}}
            }
        },
        "/api/v1/admin/plots": {
            "post": {
                "summary": "Validate, append and persist one plot",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/plot"}}],
                "responses": {"201": {"description": "added"}, "422": {"description": "invalid record"}, "502": {"description": "persist failed"}}
            },
            "put": {
                "summary": "Replace the whole table",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "replaced"}, "422": {"description": "invalid record"}, "502": {"description": "persist failed"}}
            }
        },
        "/api/v1/admin/plots/import": {
            "post": {
                "summary": "Import plots from .xlsx, .kml or .kmz",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "formData", "name": "file", "required": true, "type": "file"},
                    {"in": "formData", "name": "mode", "type": "string", "enum": ["append", "replace"]}
                ],
                "responses": {"200": {"description": "imported"}, "400": {"description": "unreadable file"}}
            }
        },
        "/api/v1/admin/plots/export.xlsx": {
            "get": {"summary": "Download the table as a workbook", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "xlsx"}}}
        },
        "/api/v1/admin/plots/export.shp.zip": {
            "get": {"summary": "Download mappable plots as a zipped shapefile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "zip"}}}
        },
        "/api/v1/admin/geocode": {
            "get": {
                "summary": "Resolve an address to coordinates",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "address", "required": true, "type": "string"}],
                "responses": {"200": {"description": "found=false on a miss"}}
            }
        }
    },
    "definitions": {
        "login": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "gps": {
            "type": "object",
            "properties": {"lat": {"type": "number"}, "lon": {"type": "number"}}
        },
        "plot": {
            "type": "object",
            "properties": {
                "plotNo": {"type": "integer"},
                "location": {"type": "string"},
                "areaSqft": {"type": "number"},
                "status": {"type": "string", "enum": ["Available", "Booked", "Sold"]},
                "priceLakhs": {"type": "number"},
                "lat": {"type": "number"},
                "lon": {"type": "number"},
                "extra": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Plotdesk API",
	Description:      "Plot inventory: public gallery and map, admin edits backed by a spreadsheet.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// ServeDoc writes the registered document
func ServeDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
