package storage

import (
	"cardvault/internal/model"
)

// Hierarchy resolves directory subtrees and the decks they contain. It
// holds explicit store handles; nothing here touches shared package state.
type Hierarchy struct {
	directories *Store[*model.Directory]
	decks       *Store[*model.Deck]
}

func NewHierarchy(directories *Store[*model.Directory], decks *Store[*model.Deck]) *Hierarchy {
	return &Hierarchy{directories: directories, decks: decks}
}

// SubDirectories collects every directory whose ancestor chain reaches
// rootID, in pre-order with parents before children. The root itself is
// excluded. The walk carries a visited set: a parent cycle in the stored
// data fails explicitly instead of looping.
func (h *Hierarchy) SubDirectories(clientID, rootID string) ([]*model.Directory, error) {
	all, err := h.directories.GetAll(clientID)
	if err != nil {
		return nil, err
	}

	children := make(map[string][]*model.Directory)
	for _, dir := range all {
		if dir.ParentID == nil {
			continue
		}
		children[*dir.ParentID] = append(children[*dir.ParentID], dir)
	}

	var out []*model.Directory
	visited := map[string]bool{rootID: true}
	var stack []*model.Directory
	push := func(dirs []*model.Directory) {
		// Reversed, so the leftmost child is popped first.
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, dirs[i])
		}
	}
	push(children[rootID])
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[dir.ID] {
			return nil, &Error{Kind: KindStorage, Table: h.directories.spec.Name, Msg: "parent cycle at directory " + dir.ID}
		}
		visited[dir.ID] = true
		out = append(out, dir)
		push(children[dir.ID])
	}
	return out, nil
}

// SubDecks returns the decks directly under rootID plus the decks under any
// descendant directory.
func (h *Hierarchy) SubDecks(clientID, rootID string) ([]*model.Deck, error) {
	decks, err := h.decks.GetAllBy(clientID, "parentId", rootID)
	if err != nil {
		return nil, err
	}

	subDirs, err := h.SubDirectories(clientID, rootID)
	if err != nil {
		return nil, err
	}
	for _, dir := range subDirs {
		sub, err := h.decks.GetAllBy(clientID, "parentId", dir.ID)
		if err != nil {
			return nil, err
		}
		decks = append(decks, sub...)
	}
	return decks, nil
}
