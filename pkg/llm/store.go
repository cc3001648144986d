// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package llm

import "sort"

// ChatClientStore maps model IDs to chat clients. It is immutable after
// construction; concurrent reads need no locking.
type ChatClientStore struct {
	clients       map[string]ChatClient
	defaultClient ChatClient
	providers     map[string]string
}

// NewChatClientStore creates a store over the given clients. The default
// client is returned for model IDs not present in the map. The providers
// map assigns each model ID to a provider name for rate-limit bucketing;
// unmapped models are not rate limited.
func NewChatClientStore(clients map[string]ChatClient, defaultClient ChatClient, providers map[string]string) *ChatClientStore {
	cs := make(map[string]ChatClient, len(clients))
	for id, c := range clients {
		cs[id] = c
	}
	ps := make(map[string]string, len(providers))
	for id, p := range providers {
		ps[id] = p
	}
	return &ChatClientStore{clients: cs, defaultClient: defaultClient, providers: ps}
}

// Get returns the client registered for modelID, or the default client
// when the model is unknown.
func (s *ChatClientStore) Get(modelID string) ChatClient {
	if c, ok := s.clients[modelID]; ok {
		return c
	}
	return s.defaultClient
}

// ModelIDs returns all registered model IDs in sorted order.
func (s *ChatClientStore) ModelIDs() []string {
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Provider returns the provider name registered for modelID, or "" when
// the model has no provider mapping.
func (s *ChatClientStore) Provider(modelID string) string {
	return s.providers[modelID]
}

// EmbeddingModelStore maps model IDs to embedding models. Immutable after
// construction.
type EmbeddingModelStore struct {
	models       map[string]EmbeddingModel
	defaultModel EmbeddingModel
	providers    map[string]string
}

// NewEmbeddingModelStore creates a store over the given embedding models.
func NewEmbeddingModelStore(models map[string]EmbeddingModel, defaultModel EmbeddingModel, providers map[string]string) *EmbeddingModelStore {
	ms := make(map[string]EmbeddingModel, len(models))
	for id, m := range models {
		ms[id] = m
	}
	ps := make(map[string]string, len(providers))
	for id, p := range providers {
		ps[id] = p
	}
	return &EmbeddingModelStore{models: ms, defaultModel: defaultModel, providers: ps}
}

// Get returns the embedding model registered for modelID, or the default
// model when unknown.
func (s *EmbeddingModelStore) Get(modelID string) EmbeddingModel {
	if m, ok := s.models[modelID]; ok {
		return m
	}
	return s.defaultModel
}

// ModelIDs returns all registered embedding model IDs in sorted order.
func (s *EmbeddingModelStore) ModelIDs() []string {
	ids := make([]string, 0, len(s.models))
	for id := range s.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Provider returns the provider name registered for modelID, or "".
func (s *EmbeddingModelStore) Provider(modelID string) string {
	return s.providers[modelID]
}
