// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides SQLite persistence for the investor portal.
//
// One Store backs both the portfolio data (projects, investments, daily
// production, profiles) and the authentication sessions.
//
// # Usage
//
//	store, err := storage.Open(cfg.DatabasePath())
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	svc := portfolio.NewService(store)
//	dash, err := svc.LoadDashboard(ctx, userID)
//
// Load the demo catalogue:
//
//	res, err := store.Seed(ctx, storage.DefaultSeedDays, time.Now())
//
// Purchases run in a single transaction: the investment row is written and
// the project's available shares are decremented together, or not at all.
package storage
