package rest

import (
	"encoding/json"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ghodss/yaml"
	"github.com/go-chi/chi/v5"
)

//NewOpenAPI3 instantiates the OpenAPI specification for this service.
func NewOpenAPI3() openapi3.T {
	swagger := openapi3.T{
		OpenAPI: "3.0.0",
		Info:    &openapi3.Info{
			Title:       "Tasks",
			Description: "Single user task tracking",
			Version:     "0.0.0",
			License: &openapi3.License{
				Name: "MIT",
				URL:  "https://opensource.org/licenses/MIT",
			},
		},
		Components: &openapi3.Components{},
		Servers:    openapi3.Servers{
			&openapi3.Server{
				Description: "Local development",
				URL:         "http://0.0.0.0:5000",
			},
		},
	}

	swagger.Components.Schemas = openapi3.Schemas{
		"Task": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("id", openapi3.NewIntegerSchema()).
				WithProperty("title", openapi3.NewStringSchema()).
				WithProperty("priority", openapi3.NewIntegerSchema().WithEnum(1, 2, 3)).
				WithProperty("completed", openapi3.NewBoolSchema()).
				WithProperty("created", openapi3.NewStringSchema()).
				WithProperty("completed_date", openapi3.NewStringSchema())),
		"ErrorResponse": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("error", openapi3.NewStringSchema())),
	}

	taskRef := openapi3.NewSchemaRef("#/components/schemas/Task", swagger.Components.Schemas["Task"].Value)
	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", swagger.Components.Schemas["ErrorResponse"].Value)

	redirect := func() openapi3.Responses {
		return openapi3.Responses{
			"302": &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Redirects back to the task list"),
			},
			"500": &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Tasks could not be saved").WithJSONSchemaRef(errorRef),
			},
		}
	}

	idParam := func() openapi3.Parameters {
		return openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewIntegerSchema()),
			},
		}
	}

	swagger.Paths = openapi3.Paths{
		"/api/tasks": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "ListTasks",
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{
						Value: openapi3.NewResponse().
							WithDescription("All tasks in display order").
							WithJSONSchema(openapi3.NewArraySchema().WithItems(taskRef.Value)),
					},
				},
			},
		},
		"/add": &openapi3.PathItem{
			Post: &openapi3.Operation{
				OperationID: "AddTask",
				RequestBody: &openapi3.RequestBodyRef{
					Value: openapi3.NewRequestBody().
						WithRequired(true).
						WithFormDataSchema(openapi3.NewObjectSchema().
							WithProperty("title", openapi3.NewStringSchema()).
							WithProperty("priority", openapi3.NewStringSchema().WithDefault("2"))),
				},
				Responses: func() openapi3.Responses {
					res := redirect()
					res["400"] = &openapi3.ResponseRef{
						Value: openapi3.NewResponse().WithDescription("Priority is not valid").WithJSONSchemaRef(errorRef),
					}
					return res
				}(),
			},
		},
		"/complete/{id}": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "ToggleTask",
				Parameters:  idParam(),
				Responses:   redirect(),
			},
		},
		"/delete/{id}": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "DeleteTask",
				Parameters:  idParam(),
				Responses:   redirect(),
			},
		},
		"/clear-completed": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "ClearCompletedTasks",
				Responses:   redirect(),
			},
		},
	}

	return swagger
}

//RegisterOpenAPI serves the OpenAPI document as JSON and YAML.
func RegisterOpenAPI(r chi.Router) {
	swagger := NewOpenAPI3()

	r.Get("/openapi3.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&swagger)
	})

	r.Get("/openapi3.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")

		data, _ := yaml.Marshal(&swagger)

		_, _ = w.Write(data)
	})
}
