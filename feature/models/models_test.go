package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAvailability_Value(t *testing.T) {
	v, err := Active.Value()
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = Unavailable.Value()
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestAvailability_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want Availability
	}{
		{"Bool true", true, Active},
		{"Bool false", false, Unavailable},
		{"Int one", int64(1), Active},
		{"Int zero", int64(0), Unavailable},
		{"Bytes one", []byte("1"), Active},
		{"Bytes zero", []byte("0"), Unavailable},
		{"String true", "true", Active},
		{"String false", "false", Unavailable},
		{"Nil", nil, Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Availability
			require.NoError(t, a.Scan(tt.src))
			assert.Equal(t, tt.want, a)
		})
	}

	var a Availability
	assert.Error(t, a.Scan(3.5))
}

func TestAvailability_String(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "unavailable", Unavailable.String())
	assert.True(t, Active.IsActive())
	assert.False(t, Unavailable.IsActive())
}

func TestRankName(t *testing.T) {
	assert.Equal(t, "Guild Master", RankName(0))
	assert.Equal(t, "Rank 1", RankName(1))
	assert.Equal(t, "Rank 9", RankName(9))
}

func TestMigrate_RoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:models_migrate?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range All() {
		assert.True(t, db.Migrator().HasTable(m))
	}

	c := Character{Name: "Anna", Realm: "area-52", Region: "us", IdentityKey: "anna-area-52", Role: DefaultRole}
	require.NoError(t, db.Create(&c).Error)

	var loaded Character
	require.NoError(t, db.First(&loaded, c.ID).Error)
	assert.Equal(t, Active, loaded.Availability)

	require.NoError(t, db.Model(&Character{}).Where("id = ?", c.ID).Update("is_available", Unavailable).Error)
	require.NoError(t, db.First(&loaded, c.ID).Error)
	assert.Equal(t, Unavailable, loaded.Availability)

	var count int64
	require.NoError(t, db.Model(&Character{}).Where("is_available = ?", Active).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, db.Create(&Rank{GuildID: 1, RankID: 0, RankName: RankName(0), MemberCount: 1}).Error)
	require.NoError(t, db.Create(&Rank{GuildID: 1, RankID: 1, RankName: RankName(1), MemberCount: 3}).Error)

	var ranks []Rank
	require.NoError(t, db.Where("guild_id = ?", 1).Order("rank_id").Find(&ranks).Error)
	require.Len(t, ranks, 2)
	assert.Equal(t, "Guild Master", ranks[0].RankName)
}
