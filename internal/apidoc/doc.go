// Package apidoc builds the OpenAPI 3 contract for the Payin Calculator API.
// The server serves it on /openapi.json so clients can discover the routes
// and envelopes without reading the source.
package apidoc

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/payinhq/payin-calculator/internal/constants"
)

// Document assembles the API contract.
func Document() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Payin Calculator API",
			Description: "Lender/product/region catalog and slab-based payin calculation over a reloadable rate table.",
			Version:     constants.Version,
		},
		Paths: openapi3.NewPaths(),
	}

	successEnvelope := objectSchema(map[string]*openapi3.SchemaRef{
		"status": stringSchema(),
		"data":   {Value: openapi3.NewObjectSchema()},
	})
	errorEnvelope := objectSchema(map[string]*openapi3.SchemaRef{
		"detail": stringSchema(),
	})

	doc.Paths.Set("/", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getRoot",
			Summary:     "Service banner",
			Responses: responses(map[int]*openapi3.SchemaRef{
				200: objectSchema(map[string]*openapi3.SchemaRef{
					"message": stringSchema(),
					"status":  stringSchema(),
				}),
			}),
		},
	})

	doc.Paths.Set(constants.PathData, &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getData",
			Summary:     "All distinct lenders, products and regions",
			Responses: responses(map[int]*openapi3.SchemaRef{
				200: successEnvelope,
				503: errorEnvelope,
			}),
		},
	})

	doc.Paths.Set(constants.PathProducts+"/{lender}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getProductsForLender",
			Summary:     "Products offered by one lender",
			Parameters:  openapi3.Parameters{pathParam("lender")},
			Responses: responses(map[int]*openapi3.SchemaRef{
				200: successEnvelope,
				503: errorEnvelope,
			}),
		},
	})

	doc.Paths.Set(constants.PathRegions+"/{lender}/{product}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getRegionsForLenderProduct",
			Summary:     "Regions for a lender and product pair",
			Parameters:  openapi3.Parameters{pathParam("lender"), pathParam("product")},
			Responses: responses(map[int]*openapi3.SchemaRef{
				200: successEnvelope,
				503: errorEnvelope,
			}),
		},
	})

	calculateRequest := objectSchema(map[string]*openapi3.SchemaRef{
		"lender":  stringSchema(),
		"product": stringSchema(),
		"region":  stringSchema(),
		"amount":  {Value: openapi3.NewSchema()}, // JSON number or numeric string
	})

	doc.Paths.Set(constants.PathCalculate, &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "calculatePayin",
			Summary:     "Calculate the payin for an amount",
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().
					WithRequired(true).
					WithJSONSchemaRef(calculateRequest),
			},
			Responses: responses(map[int]*openapi3.SchemaRef{
				200: successEnvelope,
				400: errorEnvelope,
				404: errorEnvelope,
				503: errorEnvelope,
			}),
		},
	})

	doc.Paths.Set(constants.PathHealth, &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getHealth",
			Summary:     "Liveness and table status",
			Responses: responses(map[int]*openapi3.SchemaRef{
				200: healthSchema(),
				503: healthSchema(),
			}),
		},
	})

	doc.Paths.Set(constants.PathReady, &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getReady",
			Summary:     "Readiness probe",
			Responses: responses(map[int]*openapi3.SchemaRef{
				200: objectSchema(map[string]*openapi3.SchemaRef{"status": stringSchema()}),
				503: objectSchema(map[string]*openapi3.SchemaRef{"status": stringSchema()}),
			}),
		},
	})

	return doc
}

// JSON renders the contract with the same two-space indent as every other
// response body.
func JSON() ([]byte, error) {
	doc := Document()
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return json.MarshalIndent(decoded, "", "  ")
}

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}
}

func objectSchema(props map[string]*openapi3.SchemaRef) *openapi3.SchemaRef {
	schema := openapi3.NewObjectSchema()
	schema.Properties = props
	return &openapi3.SchemaRef{Value: schema}
}

func healthSchema() *openapi3.SchemaRef {
	return objectSchema(map[string]*openapi3.SchemaRef{
		"status":      stringSchema(),
		"message":     stringSchema(),
		"data_status": stringSchema(),
		"timestamp":   stringSchema(),
		"version":     stringSchema(),
		"uptime":      stringSchema(),
		"checks":      {Value: openapi3.NewObjectSchema()},
	})
}

func pathParam(name string) *openapi3.ParameterRef {
	param := openapi3.NewPathParameter(name)
	param.Schema = stringSchema()
	return &openapi3.ParameterRef{Value: param}
}

func responses(byStatus map[int]*openapi3.SchemaRef) *openapi3.Responses {
	resp := openapi3.NewResponses()
	for status, schema := range byStatus {
		resp.Set(strconv.Itoa(status), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(http.StatusText(status)).
				WithJSONSchemaRef(schema),
		})
	}
	return resp
}
