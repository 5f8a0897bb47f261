package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/lvoinea/stuffkeeper/internal/photo"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, photos *photo.Store, secret string, tokenTTL time.Duration) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Secret: secret, TokenTTL: tokenTTL}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Photos: photos}
	imagesHandler := &ImagesHandler{DB: db, Photos: photos}
	taxonomyHandler := &TaxonomyHandler{DB: db}

	authMW := AuthMiddleware(db, secret)

	// Public: login and registration.
	mux.HandleFunc("POST /token", authHandler.Token)
	mux.HandleFunc("POST /users/{$}", usersHandler.Create)

	// Everything below is scoped to the bearer-authenticated user.
	mux.Handle("GET /users/me", authMW(http.HandlerFunc(usersHandler.Me)))
	mux.Handle("POST /users/me", authMW(http.HandlerFunc(usersHandler.Update)))

	mux.Handle("GET /users/me/items/{$}", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /users/me/items/{$}", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /users/me/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("POST /users/me/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /users/me/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))

	mux.Handle("POST /users/me/items/{id}/image", authMW(http.HandlerFunc(imagesHandler.Upload)))
	mux.Handle("GET /users/me/items/{id}/image/{imageId}", authMW(http.HandlerFunc(imagesHandler.Get)))

	mux.Handle("GET /users/me/tags/{$}", authMW(http.HandlerFunc(taxonomyHandler.ListTags)))
	mux.Handle("POST /users/me/tags/{id}", authMW(http.HandlerFunc(taxonomyHandler.UpdateTag)))
	mux.Handle("GET /users/me/locations/{$}", authMW(http.HandlerFunc(taxonomyHandler.ListLocations)))
	mux.Handle("POST /users/me/locations/{id}", authMW(http.HandlerFunc(taxonomyHandler.UpdateLocation)))

	return mux
}
