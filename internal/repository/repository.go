// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
//
// Every method runs its work through the database runner, so queries from
// concurrent requests are serialized onto the single managed connection.
// Methods return pgx.ErrNoRows untouched; translating that into a 404 (or
// any other HTTP shape) is the service layer's call.
package repository
