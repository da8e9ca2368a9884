package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardvault/internal/generate"
	"cardvault/internal/model"
	"cardvault/internal/storage"
)

const (
	tokenA  = "token-a"
	tokenB  = "token-b"
	clientA = "client-a-0000000000000000"
	clientB = "client-b-0000000000000000"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stores := storage.NewStores(db)
	hierarchy := storage.NewHierarchy(stores.Directories, stores.Decks)
	shared := storage.NewSharedItemStore(db, stores, hierarchy)
	gen := generate.NewService(generate.Disabled{}, stores)

	tokens := StaticTokens{
		tokenA: model.Client{ID: clientA, UserName: "alice", Email: "alice@example.com"},
		tokenB: model.Client{ID: clientB, UserName: "bob", Email: "bob@example.com"},
	}
	return NewServer(db, stores, shared, gen, tokens)
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method, path string
		header       string
	}{
		{http.MethodGet, "/decks", ""},
		{http.MethodGet, "/decks", "Bearer unknown-token"},
		{http.MethodGet, "/decks", "NotBearer " + tokenA},
		{http.MethodPost, "/sharedItems/transfer", ""},
		{http.MethodDelete, "/deleteClient", ""},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		s.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s with header %q", tc.method, tc.path, tc.header)
	}
}

func TestSharedCatalogIsPublic(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/sharedItems", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Entities []*model.SharedItem `json:"entities"`
	}
	decode(t, w, &body)
	assert.NotNil(t, body.Entities)
	assert.Empty(t, body.Entities)
}

func TestEntityRoundTrip(t *testing.T) {
	s := newTestServer(t)

	deck := &model.Deck{Name: "German"}
	deck.SetRecordID(storage.NewID())

	w := do(t, s, http.MethodPost, "/decks/add", tokenA, gin.H{"entities": []*model.Deck{deck}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list struct {
		Entities []*model.Deck `json:"entities"`
	}
	w = do(t, s, http.MethodGet, "/decks", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Entities, 1)
	assert.Equal(t, deck.ID, list.Entities[0].ID)
	assert.Equal(t, clientA, list.Entities[0].ClientID)

	// The other tenant sees nothing.
	w = do(t, s, http.MethodGet, "/decks", tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Empty(t, list.Entities)

	deck.Name = "German A1"
	w = do(t, s, http.MethodPost, "/decks/update", tokenA, gin.H{"entities": []*model.Deck{deck}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodPost, "/decks/delete", tokenA, gin.H{"ids": []string{deck.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/decks", tokenA, nil)
	decode(t, w, &list)
	assert.Empty(t, list.Entities)
}

func TestAddRejectsInvalidEntity(t *testing.T) {
	s := newTestServer(t)

	deck := &model.Deck{Name: strings.Repeat("x", 101)}
	deck.SetRecordID(storage.NewID())

	w := do(t, s, http.MethodPost, "/decks/add", tokenA, gin.H{"entities": []*model.Deck{deck}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, s, http.MethodPost, "/decks/add", tokenA, gin.H{"bogus": true})
	require.Equal(t, http.StatusOK, w.Code, "a missing entities list is an empty batch")
}

func TestDeleteAbsentEntity(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/decks/delete", tokenA, gin.H{"ids": []string{storage.NewID()}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetAllPayload(t *testing.T) {
	s := newTestServer(t)

	deck := &model.Deck{Name: "Only deck"}
	deck.SetRecordID(storage.NewID())
	w := do(t, s, http.MethodPost, "/decks/add", tokenA, gin.H{"entities": []*model.Deck{deck}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/all", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]json.RawMessage
	decode(t, w, &payload)
	for _, key := range []string{
		"directories", "decks", "cardTypes", "fields",
		"cardTypeVariants", "cards", "fieldContents", "sharedItems",
	} {
		require.Contains(t, payload, key)
		assert.NotEqual(t, "null", string(payload[key]), "%s must be a list, never null", key)
	}

	var decks []*model.Deck
	require.NoError(t, json.Unmarshal(payload["decks"], &decks))
	require.Len(t, decks, 1)
}

func TestShareAndTransferFlow(t *testing.T) {
	s := newTestServer(t)

	deck := &model.Deck{Name: "Shared deck"}
	deck.SetRecordID(storage.NewID())
	w := do(t, s, http.MethodPost, "/decks/add", tokenA, gin.H{"entities": []*model.Deck{deck}})
	require.Equal(t, http.StatusOK, w.Code)

	item := &model.SharedItem{SharedItemID: deck.ID, SharedItemName: "For everyone"}
	w = do(t, s, http.MethodPost, "/sharedItems/add", tokenA, gin.H{"entities": []*model.SharedItem{item}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var catalog struct {
		Entities []*model.SharedItem `json:"entities"`
	}
	w = do(t, s, http.MethodGet, "/sharedItems", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &catalog)
	require.Len(t, catalog.Entities, 1)
	itemID := catalog.Entities[0].ID

	// Anyone can inspect the export.
	w = do(t, s, http.MethodGet, "/sharedItems/"+itemID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var download struct {
		Download *model.Snapshot `json:"download"`
	}
	decode(t, w, &download)
	require.Len(t, download.Download.Decks, 1)

	w = do(t, s, http.MethodPost, "/sharedItems/transfer", tokenB, gin.H{"id": itemID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list struct {
		Entities []*model.Deck `json:"entities"`
	}
	w = do(t, s, http.MethodGet, "/decks", tokenB, nil)
	decode(t, w, &list)
	require.Len(t, list.Entities, 1)
	assert.NotEqual(t, deck.ID, list.Entities[0].ID, "the clone carries a fresh id")

	w = do(t, s, http.MethodGet, "/sharedItems", "", nil)
	decode(t, w, &catalog)
	require.Len(t, catalog.Entities, 1)
	assert.EqualValues(t, 1, catalog.Entities[0].Downloads)
}

func TestPublishForeignDeckRejected(t *testing.T) {
	s := newTestServer(t)

	deck := &model.Deck{Name: "Not yours"}
	deck.SetRecordID(storage.NewID())
	w := do(t, s, http.MethodPost, "/decks/add", tokenA, gin.H{"entities": []*model.Deck{deck}})
	require.Equal(t, http.StatusOK, w.Code)

	item := &model.SharedItem{SharedItemID: deck.ID, SharedItemName: "Stolen"}
	w = do(t, s, http.MethodPost, "/sharedItems/add", tokenB, gin.H{"entities": []*model.SharedItem{item}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTransferUnknownItem(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/sharedItems/transfer", tokenB, gin.H{"id": storage.NewID()})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, s, http.MethodPost, "/sharedItems/transfer", tokenB, gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeleteClient(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 3; i++ {
		deck := &model.Deck{Name: fmt.Sprintf("deck %d", i)}
		deck.SetRecordID(storage.NewID())
		w := do(t, s, http.MethodPost, "/decks/add", tokenA, gin.H{"entities": []*model.Deck{deck}})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, s, http.MethodDelete, "/deleteClient", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Entities []*model.Deck `json:"entities"`
	}
	w = do(t, s, http.MethodGet, "/decks", tokenA, nil)
	decode(t, w, &list)
	assert.Empty(t, list.Entities)
}

func TestGenerateCardsNotConfigured(t *testing.T) {
	s := newTestServer(t)

	ct := &model.CardType{Name: "Basic"}
	ct.SetRecordID(storage.NewID())
	w := do(t, s, http.MethodPost, "/cardTypes/add", tokenA, gin.H{"entities": []*model.CardType{ct}})
	require.Equal(t, http.StatusOK, w.Code)
	field := &model.Field{Name: "Front", CardTypeID: ct.ID}
	field.SetRecordID(storage.NewID())
	w = do(t, s, http.MethodPost, "/fields/add", tokenA, gin.H{"entities": []*model.Field{field}})
	require.Equal(t, http.StatusOK, w.Code)
	deck := &model.Deck{Name: "Deck"}
	deck.SetRecordID(storage.NewID())
	w = do(t, s, http.MethodPost, "/decks/add", tokenA, gin.H{"entities": []*model.Deck{deck}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/cards/generate", tokenA, gin.H{
		"cardTypeId": ct.ID,
		"deckId":     deck.ID,
		"inputText":  "some text",
		"prompt":     "make cards",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
