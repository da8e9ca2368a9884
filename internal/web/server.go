package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardvault/internal/generate"
	"cardvault/internal/storage"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	db     *storage.DB
	stores *storage.Stores
	shared *storage.SharedItemStore
	gen    *generate.Service
	auth   Authenticator
	router *gin.Engine
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, stores *storage.Stores, shared *storage.SharedItemStore, gen *generate.Service, auth Authenticator) *Server {
	s := &Server{
		db:     db,
		stores: stores,
		shared: shared,
		gen:    gen,
		auth:   auth,
		router: gin.Default(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts listening on addr.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	auth := s.authRequired()

	registerEntity(s.router, auth, s.stores.Directories)
	registerEntity(s.router, auth, s.stores.Decks)
	registerEntity(s.router, auth, s.stores.CardTypes)
	registerEntity(s.router, auth, s.stores.Fields)
	registerEntity(s.router, auth, s.stores.CardTypeVariants)
	registerEntity(s.router, auth, s.stores.Cards)
	registerEntity(s.router, auth, s.stores.FieldContents)

	s.router.GET("/all", auth, s.handleGetAll)

	// The shared catalog is public; everything that writes is not.
	s.router.GET("/sharedItems", s.handleSharedCatalog)
	s.router.GET("/sharedItems/:id", s.handleDownload)
	s.router.POST("/sharedItems/add", auth, s.handlePublish)
	s.router.POST("/sharedItems/update", auth, updateHandler(s.stores.SharedItems))
	s.router.POST("/sharedItems/delete", auth, deleteHandler(s.stores.SharedItems))
	s.router.POST("/sharedItems/transfer", auth, s.handleTransfer)
	s.router.POST("/sharedItems/deleteBySharedItem", auth, s.handleDeleteBySharedItem)

	s.router.DELETE("/deleteClient", auth, s.handleDeleteClient)
	s.router.POST("/cards/generate", auth, s.handleGenerateCards)
}
