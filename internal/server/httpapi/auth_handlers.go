package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string             `json:"message"`
	User    models.UserSummary `json:"user"`
}

type loginResponse struct {
	Message      string             `json:"message"`
	Token        string             `json:"token,omitempty"`
	RefreshToken string             `json:"refresh_token,omitempty"`
	User         models.UserSummary `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type healthResponse struct {
	OK   bool  `json:"ok"`
	Time int64 `json:"time"`
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, Time: time.Now().UnixMilli()})
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	user, err := a.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		User:    user.Summary(),
	})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	res, err := a.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	resp := loginResponse{Message: "Login successful", User: res.User.Summary()}
	if res.Tokens != nil {
		resp.Token = res.Tokens.AccessToken
		resp.RefreshToken = res.Tokens.RefreshToken
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	if a.authMode != config.AuthModeToken {
		a.notFound(w, r)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	pair, err := a.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	if a.authMode != config.AuthModeToken {
		writeJSON(w, http.StatusOK, messageBody{Message: "Logged out"})
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}

	if err := a.users.Logout(r.Context(), req.RefreshToken); err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Logged out"})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		a.writeError(r.Context(), w, common.ErrorUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user.Summary())
}
