package controllers

import (
	"net/http"
	"strconv"

	"recipe-restful/auth"
	"recipe-restful/models"
	"recipe-restful/serializers"
	"recipe-restful/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// AttributeController serves the user's tags or ingredients under one path.
type AttributeController[T any] struct {
	path    string
	idParam string
	name    string
	service services.AttributeService[T]
	render  func(*T) any
	sample  any
	samples any
	auth    *auth.Authenticator
	logger  *zap.Logger
}

func NewTagController(svc services.TagService, authn *auth.Authenticator, logger *zap.Logger) *AttributeController[models.Tag] {
	return &AttributeController[models.Tag]{
		path:    "/tags",
		idParam: "tag-id",
		name:    "tag",
		service: svc,
		render:  func(t *models.Tag) any { return serializers.NewTagResponse(t) },
		sample:  serializers.TagResponse{},
		samples: []serializers.TagResponse{},
		auth:    authn,
		logger:  logger.Named("tags"),
	}
}

func NewIngredientController(svc services.IngredientService, authn *auth.Authenticator, logger *zap.Logger) *AttributeController[models.Ingredient] {
	return &AttributeController[models.Ingredient]{
		path:    "/ingredients",
		idParam: "ingredient-id",
		name:    "ingredient",
		service: svc,
		render:  func(i *models.Ingredient) any { return serializers.NewIngredientResponse(i) },
		sample:  serializers.IngredientResponse{},
		samples: []serializers.IngredientResponse{},
		auth:    authn,
		logger:  logger.Named("ingredients"),
	}
}

func (ctl *AttributeController[T]) RegisterRoutes(ws *restful.WebService) {
	ws.Path(ctl.path).Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{ctl.path[1:]}
	authFilter := ctl.auth.Filter()
	item := "/{" + ctl.idParam + "}"
	idParam := ws.PathParameter(ctl.idParam, "Identifier of the "+ctl.name).DataType("integer")

	ws.Route(ws.GET("").Filter(authFilter).To(ctl.listHandler).
		Doc("List the user's "+ctl.path[1:]+" ordered by name descending").
		Param(ws.QueryParameter("assigned_only", "Filter by items assigned to recipes").DataType("integer").AllowableValues(map[string]string{"0": "all", "1": "assigned only"})).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "OK", ctl.samples).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}))

	ws.Route(ws.POST("").Filter(authFilter).To(ctl.createHandler).
		Doc("Create a "+ctl.name).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.AttributeInput{}).
		Returns(http.StatusCreated, "Created", ctl.sample).
		Returns(http.StatusBadRequest, "Invalid input", ErrorResponse{}).
		Returns(http.StatusConflict, "Name already used", ErrorResponse{}))

	ws.Route(ws.GET(item).Filter(authFilter).To(ctl.getHandler).
		Doc("Get a "+ctl.name).
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "OK", ctl.sample).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.PUT(item).Filter(authFilter).To(ctl.updateHandler(false)).
		Doc("Rename a "+ctl.name).
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.AttributeInput{}).
		Returns(http.StatusOK, "Updated", ctl.sample).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.PATCH(item).Filter(authFilter).To(ctl.updateHandler(true)).
		Doc("Partially update a "+ctl.name).
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.AttributeInput{}).
		Returns(http.StatusOK, "Updated", ctl.sample).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))

	ws.Route(ws.DELETE(item).Filter(authFilter).To(ctl.deleteHandler).
		Doc("Delete a "+ctl.name+", detaching it from every recipe").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Deleted", nil).
		Returns(http.StatusNotFound, "Not found", ErrorResponse{}))
}

func (ctl *AttributeController[T]) renderList(items []T) []any {
	out := make([]any, len(items))
	for i := range items {
		out[i] = ctl.render(&items[i])
	}
	return out
}

func (ctl *AttributeController[T]) listHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}

	assignedOnly := false
	if raw := request.QueryParameter("assigned_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(response, http.StatusBadRequest, "Invalid assigned_only value")
			return
		}
		assignedOnly = v
	}

	items, err := ctl.service.List(user.ID, assignedOnly)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.renderList(items), restful.MIME_JSON)
}

func (ctl *AttributeController[T]) createHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	input := new(serializers.AttributeInput)
	if !readEntity(request, response, input) {
		return
	}
	if err := input.Validate(false); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	item, err := ctl.service.Create(user.ID, *input.Name)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, ctl.render(item), restful.MIME_JSON)
}

func (ctl *AttributeController[T]) getHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, ctl.idParam)
	if !ok {
		return
	}

	item, err := ctl.service.Get(id, user.ID)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, ctl.render(item), restful.MIME_JSON)
}

func (ctl *AttributeController[T]) updateHandler(partial bool) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		user, ok := requestingUser(request, response)
		if !ok {
			return
		}
		id, ok := pathID(request, response, ctl.idParam)
		if !ok {
			return
		}
		input := new(serializers.AttributeInput)
		if !readEntity(request, response, input) {
			return
		}
		if err := input.Validate(partial); err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}

		item, err := ctl.service.Update(id, user.ID, input)
		if err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusOK, ctl.render(item), restful.MIME_JSON)
	}
}

func (ctl *AttributeController[T]) deleteHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, ctl.idParam)
	if !ok {
		return
	}

	if err := ctl.service.Delete(id, user.ID); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
