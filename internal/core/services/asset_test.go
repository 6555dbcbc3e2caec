package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
)

func (f *fixture) assetService() *AssetService {
	return NewAssetService(f.assets, f.usage, f.settings.Licenses)
}

func TestAssetService_Save(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()

	asset := &domain.Asset{Location: "/uploads/a.jpg", SourceText: "Jane", License: "CC0"}
	require.NoError(t, svc.Save(f.ctx, asset))
	assert.Equal(t, int64(1), asset.ID)

	got, err := svc.Get(f.ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.SourceText)
}

func TestAssetService_SaveRejects(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()

	tests := []struct {
		name  string
		asset *domain.Asset
	}{
		{"nil", nil},
		{"blank location", &domain.Asset{Location: "  "}},
		{"data uri", &domain.Asset{Location: "data:image/png;base64,AAAA"}},
		{"unknown license", &domain.Asset{Location: "/uploads/a.jpg", License: "WTFPL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Save(f.ctx, tt.asset), domain.ErrInvalidInput)
		})
	}
}

func TestAssetService_Lookup(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	id := f.addAsset(t, domain.Asset{Location: "/uploads/photo.jpg"})

	got, err := svc.Lookup(f.ctx, "https://cdn.example/uploads/photo-300x200.jpg?v=2")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = svc.Lookup(f.ctx, "/uploads/missing.jpg")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Lookup(f.ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssetService_List(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	f.addAsset(t, domain.Asset{Location: "/uploads/a.jpg"})
	f.addAsset(t, domain.Asset{Location: "/uploads/b.png"})
	f.addAsset(t, domain.Asset{Location: "/uploads/c.jpg"})

	assets, err := svc.List(f.ctx, domain.AssetQuery{Extensions: []string{"jpg"}})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "/uploads/a.jpg", assets[0].Location)
	assert.Equal(t, "/uploads/c.jpg", assets[1].Location)
}

func TestAssetService_SetAttribute(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	id := f.addAsset(t, domain.Asset{Location: "/uploads/a.jpg"})

	require.NoError(t, svc.SetAttribute(f.ctx, id, domain.AttrLicense, "CC BY 4.0"))
	assert.ErrorIs(t, svc.SetAttribute(f.ctx, id, domain.AttrLicense, "Mine"), domain.ErrInvalidInput)

	got, err := svc.Get(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "CC BY 4.0", got.License)
}

func TestAssetService_DeleteDropsUsageRecord(t *testing.T) {
	f := newFixture(t)
	svc := f.assetService()
	id := f.addAsset(t, domain.Asset{Location: "/uploads/a.jpg"})
	require.NoError(t, f.usage.SaveRecord(f.ctx, &domain.UsageRecord{AssetID: id, LastCheckedAt: time.Now()}))

	require.NoError(t, svc.Delete(f.ctx, id))

	_, err := svc.Get(f.ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	record, err := f.usage.GetRecord(f.ctx, id)
	require.NoError(t, err)
	assert.Nil(t, record)
}
