// Package models defines the entities of the social graph: users, the
// moments they share and the closed set of moment types.
//
// Entities are plain values owned by the store. The only mutating entry point
// on an entity is (*User).AddFriend; relationships that span two users
// (mutual friendship) are established one level up, in package store.
package models
