package mocks

import (
	"context"

	"roster-sync/core/armory"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of armory.API
type Client struct {
	mock.Mock
}

func (m *Client) GuildData(ctx context.Context, region, realm, name string) (*armory.Guild, error) {
	args := m.Called(ctx, region, realm, name)
	if g, ok := args.Get(0).(*armory.Guild); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) GuildRoster(ctx context.Context, region, realm, name string) (*armory.Roster, error) {
	args := m.Called(ctx, region, realm, name)
	if r, ok := args.Get(0).(*armory.Roster); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) CharacterProfile(ctx context.Context, region, realm, name string) (*armory.ProfileBundle, error) {
	args := m.Called(ctx, region, realm, name)
	if p, ok := args.Get(0).(*armory.ProfileBundle); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) CollectionsIndex(ctx context.Context, region, realm, name string) (*armory.CollectionsIndex, error) {
	args := m.Called(ctx, region, realm, name)
	if idx, ok := args.Get(0).(*armory.CollectionsIndex); ok {
		return idx, args.Error(1)
	}
	return nil, args.Error(1)
}

// Follow decodes nothing by itself; tests fill out through mock.Run.
func (m *Client) Follow(ctx context.Context, href string, out any) error {
	args := m.Called(ctx, href, out)
	return args.Error(0)
}
