package controllers

import (
	"errors"
	"net/http"

	"recipe-restful/auth"
	"recipe-restful/repositories"
	"recipe-restful/serializers"
	"recipe-restful/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

const mimeMultipart = "multipart/form-data"

// RecipeController serves the authenticated user's recipes.
type RecipeController struct {
	recipes  services.RecipeService
	images   *services.ImageStore
	auth     *auth.Authenticator
	mediaURL func(string) string
	logger   *zap.Logger
}

func NewRecipeController(recipes services.RecipeService, images *services.ImageStore, authn *auth.Authenticator, mediaURL func(string) string, logger *zap.Logger) *RecipeController {
	return &RecipeController{
		recipes:  recipes,
		images:   images,
		auth:     authn,
		mediaURL: mediaURL,
		logger:   logger.Named("recipes"),
	}
}

// RegisterRoutes sets up the recipe routes for a go-restful WebService.
func (ctl *RecipeController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/recipes").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"recipes"}
	authFilter := ctl.auth.Filter()
	idParam := ws.PathParameter("recipe-id", "Identifier of the recipe").DataType("integer")

	ws.Route(ws.GET("").Filter(authFilter).To(ctl.listHandler).
		Doc("List the user's recipes, newest first").
		Param(ws.QueryParameter("tags", "Comma separated list of tag IDs to filter").DataType("string")).
		Param(ws.QueryParameter("ingredients", "Comma separated list of ingredient IDs to filter").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]serializers.RecipeResponse{}).
		Returns(http.StatusOK, "OK", []serializers.RecipeResponse{}).
		Returns(http.StatusBadRequest, "Malformed filter", ErrorResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}))

	ws.Route(ws.POST("").Filter(authFilter).To(ctl.createHandler).
		Doc("Create a recipe owned by the requesting user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.RecipeInput{}).
		Returns(http.StatusCreated, "Recipe created", serializers.RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", ErrorResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}))

	ws.Route(ws.GET("/{recipe-id}").Filter(authFilter).To(ctl.getHandler).
		Doc("Get recipe detail").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(serializers.RecipeDetailResponse{}).
		Returns(http.StatusOK, "OK", serializers.RecipeDetailResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", ErrorResponse{}))

	ws.Route(ws.PUT("/{recipe-id}").Filter(authFilter).To(ctl.updateHandler(false)).
		Doc("Replace a recipe").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.RecipeInput{}).
		Returns(http.StatusOK, "Recipe updated", serializers.RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", ErrorResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", ErrorResponse{}))

	ws.Route(ws.PATCH("/{recipe-id}").Filter(authFilter).To(ctl.updateHandler(true)).
		Doc("Partially update a recipe").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.RecipeInput{}).
		Returns(http.StatusOK, "Recipe updated", serializers.RecipeDetailResponse{}).
		Returns(http.StatusBadRequest, "Invalid input", ErrorResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", ErrorResponse{}))

	ws.Route(ws.DELETE("/{recipe-id}").Filter(authFilter).To(ctl.deleteHandler).
		Doc("Delete a recipe").
		Param(idParam).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Recipe deleted", nil).
		Returns(http.StatusNotFound, "Recipe not found", ErrorResponse{}))

	ws.Route(ws.POST("/{recipe-id}/upload-image").Filter(authFilter).To(ctl.uploadImageHandler).
		Doc("Upload an image for a recipe").
		Consumes(mimeMultipart).
		Param(idParam).
		Param(ws.FormParameter("image", "Image file (jpeg, png or gif)").DataType("file")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Image stored", serializers.RecipeImageResponse{}).
		Returns(http.StatusBadRequest, "Not an image", ErrorResponse{}).
		Returns(http.StatusNotFound, "Recipe not found", ErrorResponse{}))
}

// listHandler (Handles GET /recipes)
func (ctl *RecipeController) listHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}

	var filter repositories.RecipeFilter
	var err error
	if filter.TagIDs, err = parseIDs(request.QueryParameter("tags")); err != nil {
		writeError(response, http.StatusBadRequest, "Invalid tags filter")
		return
	}
	if filter.IngredientIDs, err = parseIDs(request.QueryParameter("ingredients")); err != nil {
		writeError(response, http.StatusBadRequest, "Invalid ingredients filter")
		return
	}

	recipes, err := ctl.recipes.ListRecipes(user.ID, filter)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, serializers.NewRecipeListResponse(recipes), restful.MIME_JSON)
}

// createHandler (Handles POST /recipes)
func (ctl *RecipeController) createHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	input := new(serializers.RecipeInput)
	if !readEntity(request, response, input) {
		return
	}
	if err := input.Validate(false); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	recipe, err := ctl.recipes.CreateRecipe(user.ID, input)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, serializers.NewRecipeDetailResponse(recipe, ctl.mediaURL), restful.MIME_JSON)
}

// getHandler (Handles GET /recipes/{recipe-id})
func (ctl *RecipeController) getHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, "recipe-id")
	if !ok {
		return
	}

	recipe, err := ctl.recipes.GetRecipe(id, user.ID)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, serializers.NewRecipeDetailResponse(recipe, ctl.mediaURL), restful.MIME_JSON)
}

// updateHandler handles PUT (partial=false) and PATCH (partial=true) on /recipes/{recipe-id}.
func (ctl *RecipeController) updateHandler(partial bool) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		user, ok := requestingUser(request, response)
		if !ok {
			return
		}
		id, ok := pathID(request, response, "recipe-id")
		if !ok {
			return
		}
		input := new(serializers.RecipeInput)
		if !readEntity(request, response, input) {
			return
		}
		if err := input.Validate(partial); err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}

		recipe, err := ctl.recipes.UpdateRecipe(id, user.ID, input)
		if err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusOK, serializers.NewRecipeDetailResponse(recipe, ctl.mediaURL), restful.MIME_JSON)
	}
}

// deleteHandler (Handles DELETE /recipes/{recipe-id})
func (ctl *RecipeController) deleteHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, "recipe-id")
	if !ok {
		return
	}

	recipe, err := ctl.recipes.GetRecipe(id, user.ID)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	if err := ctl.recipes.DeleteRecipe(id, user.ID); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	if err := ctl.images.Remove(recipe.Image); err != nil {
		ctl.logger.Warn("failed to remove recipe image", zap.String("image", recipe.Image), zap.Error(err))
	}
	response.WriteHeader(http.StatusNoContent)
}

// uploadImageHandler (Handles POST /recipes/{recipe-id}/upload-image)
func (ctl *RecipeController) uploadImageHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	id, ok := pathID(request, response, "recipe-id")
	if !ok {
		return
	}

	recipe, err := ctl.recipes.GetRecipe(id, user.ID)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	if err := request.Request.ParseMultipartForm(services.MaxImageSize); err != nil {
		handleServiceError(response, ctl.logger, serializers.NewValidationError("image", "No file was submitted."))
		return
	}
	file, _, err := request.Request.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			err = serializers.NewValidationError("image", "No file was submitted.")
		}
		handleServiceError(response, ctl.logger, err)
		return
	}
	defer file.Close()

	stored, err := ctl.images.Save(recipe.Title, file)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	previous := recipe.Image
	recipe, err = ctl.recipes.SetImage(id, user.ID, stored)
	if err != nil {
		_ = ctl.images.Remove(stored)
		handleServiceError(response, ctl.logger, err)
		return
	}
	if previous != "" && previous != stored {
		if err := ctl.images.Remove(previous); err != nil {
			ctl.logger.Warn("failed to remove replaced image", zap.String("image", previous), zap.Error(err))
		}
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, serializers.RecipeImageResponse{
		ID:    recipe.ID,
		Image: ctl.mediaURL(recipe.Image),
	}, restful.MIME_JSON)
}
