package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardvault/internal/model"
	"cardvault/internal/storage"
)

// respondError maps a store failure onto the outward signal: storage faults
// are logged and surface as 500, everything client-caused is a 422 with the
// reason.
func respondError(c *gin.Context, err error) {
	if storage.IsServerFault(err) {
		slog.Error("store operation failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}

// registerEntity wires the generic per-table routes: list, batch add,
// batch update and batch delete, all scoped to the authenticated tenant.
func registerEntity[T model.Record](r *gin.Engine, auth gin.HandlerFunc, st *storage.Store[T]) {
	base := "/" + st.Spec().Name
	r.GET(base, auth, listHandler(st))
	r.POST(base+"/add", auth, addHandler(st))
	r.POST(base+"/update", auth, updateHandler(st))
	r.POST(base+"/delete", auth, deleteHandler(st))
}

func listHandler[T model.Record](st *storage.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := currentClient(c)
		entities, err := st.GetAll(client.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if entities == nil {
			entities = []T{}
		}
		c.JSON(http.StatusOK, gin.H{"entities": entities})
	}
}

func addHandler[T model.Record](st *storage.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := currentClient(c)
		var body struct {
			Entities []T `json:"entities"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body, property 'entities' is missing or malformed"})
			return
		}
		if err := st.AddAll(client.ID, body.Entities); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusOK)
		slog.Info("entities added", "client", client.Email, "table", st.Spec().Name, "count", len(body.Entities))
	}
}

func updateHandler[T model.Record](st *storage.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := currentClient(c)
		var body struct {
			Entities []T `json:"entities"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body, property 'entities' is missing or malformed"})
			return
		}
		for _, e := range body.Entities {
			if err := st.Update(client.ID, e); err != nil {
				respondError(c, err)
				return
			}
		}
		c.Status(http.StatusOK)
		slog.Info("entities updated", "client", client.Email, "table", st.Spec().Name, "count", len(body.Entities))
	}
}

func deleteHandler[T model.Record](st *storage.Store[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := currentClient(c)
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body, property 'ids' is missing or malformed"})
			return
		}
		for _, id := range body.IDs {
			if err := st.Delete(client.ID, id); err != nil {
				respondError(c, err)
				return
			}
		}
		c.Status(http.StatusOK)
		slog.Info("entities deleted", "client", client.Email, "table", st.Spec().Name, "count", len(body.IDs))
	}
}

// handleGetAll returns every store's rows for the tenant in one payload,
// keyed by table name.
func (s *Server) handleGetAll(c *gin.Context) {
	client := currentClient(c)
	out := gin.H{}

	collect := func(name string, get func() (any, error)) bool {
		entities, err := get()
		if err != nil {
			respondError(c, err)
			return false
		}
		out[name] = entities
		return true
	}

	ok := collect("directories", func() (any, error) { return orEmpty(s.stores.Directories.GetAll(client.ID)) }) &&
		collect("decks", func() (any, error) { return orEmpty(s.stores.Decks.GetAll(client.ID)) }) &&
		collect("cardTypes", func() (any, error) { return orEmpty(s.stores.CardTypes.GetAll(client.ID)) }) &&
		collect("fields", func() (any, error) { return orEmpty(s.stores.Fields.GetAll(client.ID)) }) &&
		collect("cardTypeVariants", func() (any, error) { return orEmpty(s.stores.CardTypeVariants.GetAll(client.ID)) }) &&
		collect("cards", func() (any, error) { return orEmpty(s.stores.Cards.GetAll(client.ID)) }) &&
		collect("fieldContents", func() (any, error) { return orEmpty(s.stores.FieldContents.GetAll(client.ID)) }) &&
		collect("sharedItems", func() (any, error) { return orEmpty(s.stores.SharedItems.GetAll(client.ID)) })
	if !ok {
		return
	}
	c.JSON(http.StatusOK, out)
}

func orEmpty[T any](rows []T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func (s *Server) handleSharedCatalog(c *gin.Context) {
	items, err := s.shared.All()
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*model.SharedItem{}
	}
	c.JSON(http.StatusOK, gin.H{"entities": items})
}

func (s *Server) handleDownload(c *gin.Context) {
	snap, err := s.shared.Download(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download": snap})
}

func (s *Server) handlePublish(c *gin.Context) {
	client := currentClient(c)
	var body struct {
		Entities []*model.SharedItem `json:"entities"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body, property 'entities' is missing or malformed"})
		return
	}
	for _, item := range body.Entities {
		if err := s.shared.Publish(client.ID, item); err != nil {
			respondError(c, err)
			return
		}
	}
	c.Status(http.StatusOK)
	slog.Info("shared items published", "client", client.Email, "count", len(body.Entities))
}

func (s *Server) handleTransfer(c *gin.Context) {
	client := currentClient(c)
	var body struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ID == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body, property 'id' is missing"})
		return
	}
	if err := s.shared.Transfer(client.ID, body.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
	slog.Info("shared item transferred", "client", client.Email, "sharedItem", body.ID)
}

func (s *Server) handleDeleteBySharedItem(c *gin.Context) {
	client := currentClient(c)
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body, property 'ids' is missing or malformed"})
		return
	}
	for _, id := range body.IDs {
		if err := s.shared.DeleteBySharedItemID(client.ID, id); err != nil {
			respondError(c, err)
			return
		}
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleDeleteClient(c *gin.Context) {
	client := currentClient(c)
	if err := s.db.DeleteClientData(client.ID); err != nil {
		respondError(c, err)
		return
	}
	slog.Info("client data deleted", "client", client.Email)
	c.Status(http.StatusOK)
}

func (s *Server) handleGenerateCards(c *gin.Context) {
	client := currentClient(c)
	var body struct {
		CardTypeID string `json:"cardTypeId"`
		DeckID     string `json:"deckId"`
		InputText  string `json:"inputText"`
		Prompt     string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}
	if body.CardTypeID == "" || body.DeckID == "" || body.InputText == "" || body.Prompt == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cardTypeId, deckId, inputText and prompt are required"})
		return
	}
	result, err := s.gen.Cards(client.ID, body.CardTypeID, body.DeckID, body.InputText, body.Prompt)
	if err != nil {
		if storage.KindOf(err) == storage.KindStorage {
			respondError(c, err)
			return
		}
		// Provider failures count as "no cards produced".
		slog.Info("card generation produced nothing", "client", client.Email, "reason", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
