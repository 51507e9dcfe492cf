package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/dto"
	"github.com/finbook/finbook_backend/internal/middleware"
	"github.com/finbook/finbook_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

const oauthStateCookieName = "oauth_state"

type googleOAuthHandler struct {
	cfg          *config.Config
	oauthService portssvc.GoogleOAuthSvcFacade
	authHandler  *authHandler
}

func newGoogleOAuthHandler(cfg *config.Config, os portssvc.GoogleOAuthSvcFacade, us portssvc.UserSvcFacade, ts portssvc.TokenSvcFacade) *googleOAuthHandler {
	return &googleOAuthHandler{
		cfg:          cfg,
		oauthService: os,
		authHandler:  newAuthHandler(us, ts),
	}
}

// registerGoogleOAuthRoutes registers the unauthenticated Google sign-in
// endpoints.
func registerGoogleOAuthRoutes(rg *gin.RouterGroup, cfg *config.Config, oauthService portssvc.GoogleOAuthSvcFacade, userService portssvc.UserSvcFacade, tokenService portssvc.TokenSvcFacade) {
	h := newGoogleOAuthHandler(cfg, oauthService, userService, tokenService)

	google := rg.Group("/auth/google")
	{
		google.GET("/login", h.login)
		google.GET("/callback", h.callback)
		google.POST("/idtoken", h.idToken)
	}
}

// login godoc
// @Summary Start Google sign-in
// @Description Sets a CSRF state cookie and redirects to Google's consent screen.
// @Tags auth
// @Success 307 "Redirect to Google"
// @Failure 500 {object} map[string]string "Failed to start sign-in"
// @Router /auth/google/login [get]
func (h *googleOAuthHandler) login(c *gin.Context) {
	state, err := h.oauthService.GenerateStateString(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to start sign-in")
		return
	}

	c.SetCookie(oauthStateCookieName, state, 600, "/", "", h.cfg.IsProduction, true)
	c.Redirect(http.StatusTemporaryRedirect, h.oauthService.GetGoogleLoginURL(c.Request.Context(), state))
}

// callback godoc
// @Summary Google sign-in callback
// @Description Verifies the CSRF state, exchanges the code, signs the user in, and redirects to the frontend with the token pair in the fragment.
// @Tags auth
// @Success 307 "Redirect to frontend"
// @Failure 401 {object} map[string]string "State mismatch"
// @Router /auth/google/callback [get]
func (h *googleOAuthHandler) callback(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	cookieState, err := c.Cookie(oauthStateCookieName)
	if err != nil || cookieState == "" || cookieState != c.Query("state") {
		c.JSON(http.StatusUnauthorized, errorBody("OAuth state mismatch", "unauthorized"))
		return
	}
	c.SetCookie(oauthStateCookieName, "", -1, "/", "", false, true)

	token, err := h.oauthService.ExchangeCodeForToken(c.Request.Context(), c.Query("code"))
	if err != nil {
		respondError(c, err, "Failed to exchange authorization code")
		return
	}

	info, err := h.oauthService.GetUserInfo(c.Request.Context(), token)
	if err != nil {
		respondError(c, err, "Failed to fetch Google profile")
		return
	}
	if !info.EmailVerified {
		c.JSON(http.StatusUnauthorized, errorBody("Google account email is not verified", "unauthorized"))
		return
	}

	resp, err := h.signIn(c, info.Email, info.Name)
	if err != nil {
		return
	}

	logger.Info("Google sign-in completed", slog.String("user_id", resp.User.UserID))

	if h.cfg.FrontendBaseURL != "" {
		fragment := url.Values{}
		fragment.Set("accessToken", resp.AccessToken)
		fragment.Set("refreshToken", resp.RefreshToken)
		fragment.Set("userID", resp.User.UserID)
		c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/oauth/complete#%s", h.cfg.FrontendBaseURL, fragment.Encode()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// idToken godoc
// @Summary Sign in with a Google ID token
// @Description Native clients obtain an ID token from Google Sign-In and post it here.
// @Tags auth
// @Accept json
// @Produce json
// @Param token body dto.GoogleIDTokenRequest true "Google ID token"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Invalid ID token"
// @Router /auth/google/idtoken [post]
func (h *googleOAuthHandler) idToken(c *gin.Context) {
	var req dto.GoogleIDTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	payload, err := h.oauthService.ValidateGoogleIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorBody("Invalid Google ID token", "unauthorized"))
		return
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !verified {
		c.JSON(http.StatusUnauthorized, errorBody("Google account email is not verified", "unauthorized"))
		return
	}

	resp, err := h.signIn(c, email, name)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, resp)
}

// signIn resolves the Google identity to a local user and mints tokens.
// Errors are already written to the response.
func (h *googleOAuthHandler) signIn(c *gin.Context, email, name string) (*dto.AuthResponse, error) {
	user, err := h.authHandler.userService.FindOrCreateOAuthUser(c.Request.Context(), email, name)
	if err != nil {
		respondError(c, err, "Failed to sign in")
		return nil, err
	}

	resp, err := h.authHandler.issueTokens(c.Request.Context(), user)
	if err != nil {
		respondError(c, err, "Failed to issue tokens")
		return nil, err
	}
	return resp, nil
}
