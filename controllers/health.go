package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// Readiness is the state source behind /healthz.
type Readiness interface {
	Ready() bool
}

type HealthResponse struct {
	Status string `json:"status"`
}

type HealthController struct {
	readiness Readiness
}

func NewHealthController(readiness Readiness) *HealthController {
	return &HealthController{readiness: readiness}
}

func (ctl *HealthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/healthz").Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").To(ctl.healthHandler).
		Doc("Readiness of the service and its database").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "Ready", HealthResponse{}).
		Returns(http.StatusServiceUnavailable, "Waiting for the database", HealthResponse{}))
}

func (ctl *HealthController) healthHandler(request *restful.Request, response *restful.Response) {
	if !ctl.readiness.Ready() {
		_ = response.WriteHeaderAndJson(http.StatusServiceUnavailable, HealthResponse{Status: "WAITING"}, restful.MIME_JSON)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, HealthResponse{Status: "READY"}, restful.MIME_JSON)
}
