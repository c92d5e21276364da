package controllers

import (
	"net/http"
	"path"

	"recipe-restful/auth"
	"recipe-restful/interceptors"
	"recipe-restful/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	apiDocsPath = "/apidocs.json"
	healthPath  = "/healthz"
	mediaPrefix = "/media/"
)

// RouterConfig collects what the HTTP surface needs.
type RouterConfig struct {
	DB        *gorm.DB
	Users     services.UserService
	Auth      *auth.Authenticator
	Images    *services.ImageStore
	Readiness Readiness
	Logger    *zap.Logger
}

// MediaURL maps a stored file path to the URL it is served from.
func MediaURL(rel string) string {
	return path.Join(mediaPrefix, rel)
}

type routeRegistrar interface {
	RegisterRoutes(ws *restful.WebService)
}

// NewContainer assembles the web services, filters, API docs and media files.
func NewContainer(cfg RouterConfig) *restful.Container {
	container := restful.NewContainer()
	container.Filter(interceptors.HTTPLogging(cfg.Logger.Named("http")))
	container.Filter(interceptors.ReadinessGate(cfg.Readiness.Ready, healthPath, apiDocsPath))

	for _, ctl := range []routeRegistrar{
		NewHealthController(cfg.Readiness),
		NewUserController(cfg.Users, cfg.Auth, cfg.Logger),
		NewRecipeController(services.NewRecipeService(cfg.DB), cfg.Images, cfg.Auth, MediaURL, cfg.Logger),
		NewTagController(services.NewTagService(cfg.DB), cfg.Auth, cfg.Logger),
		NewIngredientController(services.NewIngredientService(cfg.DB), cfg.Auth, cfg.Logger),
	} {
		ws := new(restful.WebService)
		ctl.RegisterRoutes(ws)
		container.Add(ws)
	}

	openAPI := restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       apiDocsPath,
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}
	container.Add(restfulspec.NewOpenAPIService(openAPI))

	container.Handle(mediaPrefix, http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(cfg.Images.Root()))))
	return container
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Recipe API",
			Description: "Manage recipes, tags and ingredients",
			Version:     "1.0.0",
		},
	}
	swo.SecurityDefinitions = spec.SecurityDefinitions{
		"token": spec.APIKeyAuth("Authorization", "header"),
	}
}
