// Package mocks provides mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the port interfaces. The mocks are generated using go:generate directives
// and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	provider := mocks.NewMockAuthProvider(ctrl)
//	provider.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(url, state, nonce, nil)
package mocks

// Generate mocks for the auth ports: AuthProvider, SessionRecords, RoleMapper.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=auth_ports_mock.go github.com/pantrykit/pantry-ui-api/internal/ports AuthProvider,SessionRecords,RoleMapper

// Generate mock for the StatsSource port.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=stats_source_mock.go github.com/pantrykit/pantry-ui-api/internal/ports StatsSource
