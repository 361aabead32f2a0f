package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/skybazaar/skybazaar-backend/api/middleware"
	"github.com/skybazaar/skybazaar-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if userID := middleware.UserUUIDFromContext(r.Context()); userID != uuid.Nil {
			payload["user_id"] = userID.String()
		}
		responses.WriteSuccess(w, payload)
	}
}
