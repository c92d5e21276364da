package controllers

import (
	"net/http"

	"recipe-restful/auth"
	"recipe-restful/serializers"
	"recipe-restful/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// UserController handles registration, token issue and the caller's own profile.
type UserController struct {
	userService services.UserService
	auth        *auth.Authenticator
	logger      *zap.Logger
}

// Constructor, used to create a UserController instance
func NewUserController(userService services.UserService, authn *auth.Authenticator, logger *zap.Logger) *UserController {
	return &UserController{userService: userService, auth: authn, logger: logger.Named("users")}
}

// RegisterRoutes sets up the user-related routes for a go-restful WebService.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"users"}
	authFilter := ctl.auth.Filter()

	// --- Public routes ---
	ws.Route(ws.POST("").To(ctl.createUserHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.UserInput{}).
		Returns(http.StatusCreated, "User created successfully", serializers.UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusConflict, "Email already exists", ErrorResponse{}))

	ws.Route(ws.POST("/token").To(ctl.tokenHandler).
		Doc("Exchange email and password for an auth token").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.TokenRequest{}).
		Returns(http.StatusOK, "Token issued", serializers.TokenResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusUnauthorized, "Invalid credentials", ErrorResponse{}))

	// --- Routes requiring authentication ---
	ws.Route(ws.GET("/me").Filter(authFilter).To(ctl.meHandler).
		Doc("Get the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(serializers.UserResponse{}).
		Returns(http.StatusOK, "OK", serializers.UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}))

	ws.Route(ws.PUT("/me").Filter(authFilter).To(ctl.updateMeHandler(false)).
		Doc("Update the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.UserUpdateInput{}).
		Returns(http.StatusOK, "User updated successfully", serializers.UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusConflict, "Email conflict", ErrorResponse{}))

	ws.Route(ws.PATCH("/me").Filter(authFilter).To(ctl.updateMeHandler(true)).
		Doc("Partially update the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(serializers.UserUpdateInput{}).
		Returns(http.StatusOK, "User updated successfully", serializers.UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", ErrorResponse{}).
		Returns(http.StatusConflict, "Email conflict", ErrorResponse{}))

	ws.Route(ws.DELETE("/me").Filter(authFilter).To(ctl.deleteMeHandler).
		Doc("Delete the authenticated user and everything it owns").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "User deleted", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}))
}

// createUserHandler (Handles POST /users)
func (ctl *UserController) createUserHandler(request *restful.Request, response *restful.Response) {
	input := new(serializers.UserInput)
	if !readEntity(request, response, input) {
		return
	}
	if err := input.Validate(); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	user, err := ctl.userService.CreateUser(input.Email, input.Password, services.WithName(input.Name))
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, serializers.NewUserResponse(user), restful.MIME_JSON)
}

// tokenHandler (Handles POST /users/token)
func (ctl *UserController) tokenHandler(request *restful.Request, response *restful.Response) {
	input := new(serializers.TokenRequest)
	if !readEntity(request, response, input) {
		return
	}
	if err := input.Validate(); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	user, err := ctl.userService.Authenticate(input.Email, input.Password)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}

	key, err := ctl.auth.IssueToken(user)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	access, err := ctl.auth.GenerateToken(user)
	if err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, serializers.TokenResponse{Token: key, Access: access}, restful.MIME_JSON)
}

// meHandler (Handles GET /users/me)
func (ctl *UserController) meHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, serializers.NewUserResponse(user), restful.MIME_JSON)
}

// updateMeHandler handles PUT (partial=false) and PATCH (partial=true) on /users/me.
func (ctl *UserController) updateMeHandler(partial bool) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		user, ok := requestingUser(request, response)
		if !ok {
			return
		}
		input := new(serializers.UserUpdateInput)
		if !readEntity(request, response, input) {
			return
		}
		if err := input.Validate(partial); err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}

		updated, err := ctl.userService.UpdateUser(user.ID, input)
		if err != nil {
			handleServiceError(response, ctl.logger, err)
			return
		}
		ctl.auth.ForgetUser(request.Request.Context(), user.ID)
		_ = response.WriteHeaderAndJson(http.StatusOK, serializers.NewUserResponse(updated), restful.MIME_JSON)
	}
}

// deleteMeHandler (Handles DELETE /users/me)
func (ctl *UserController) deleteMeHandler(request *restful.Request, response *restful.Response) {
	user, ok := requestingUser(request, response)
	if !ok {
		return
	}
	if err := ctl.userService.DeleteUser(user.ID); err != nil {
		handleServiceError(response, ctl.logger, err)
		return
	}
	ctl.auth.ForgetUser(request.Request.Context(), user.ID)
	response.WriteHeader(http.StatusNoContent)
}
