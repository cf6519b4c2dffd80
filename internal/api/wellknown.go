package api

import "net/http"

// wellKnownManifest is the static JSON manifest for /.well-known/ultracrew.json.
const wellKnownManifest = `{
  "name": "UltraCrew",
  "description": "Coach and runner pairing platform for ultramarathon training",
  "version": "0.1.0",
  "api_base": "/api/v1",
  "auth": {
    "type": "bearer",
    "header": "Authorization"
  },
  "endpoints": {
    "signup": "/api/v1/auth/signup",
    "login": "/api/v1/auth/login",
    "users": "/api/v1/users/me",
    "relationships": "/api/v1/relationships",
    "invitations": "/api/v1/invitations",
    "activity": "/api/v1/activity"
  },
  "health": "/health"
}`

// WellKnownHandler returns the static UltraCrew well-known manifest.
func WellKnownHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(wellKnownManifest))
}
