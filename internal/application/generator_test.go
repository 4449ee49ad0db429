package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teskilatapp/credsync/internal/domain/model"
)

func TestGenerateCredentials_Member(t *testing.T) {
	creds, err := GenerateCredentials(model.Member{
		ID:         "m-1",
		NationalID: "12345678901",
		Phone:      "0555 111 22 33",
		FullName:   "Ayşe Demir",
	})

	require.NoError(t, err)
	assert.Equal(t, "12345678901", creds.Username)
	assert.Equal(t, "05551112233", creds.Password)
}

func TestGenerateCredentials_DistrictOfficial(t *testing.T) {
	creds, err := GenerateCredentials(model.DistrictOfficial{
		DistrictID:    "d-7",
		DistrictName:  "Örnek İlçe",
		ChairmanName:  "Mehmet Kaya",
		ChairmanPhone: "5551112233",
	})

	require.NoError(t, err)
	assert.Equal(t, "ornekilce", creds.Username)
	assert.Equal(t, "5551112233", creds.Password)
}

func TestGenerateCredentials_TownOfficialFoldsAllDiacritics(t *testing.T) {
	creds, err := GenerateCredentials(model.TownOfficial{
		TownID:        "t-3",
		TownName:      "Çiğli-Şirinyer Üçüncü Bölge",
		ChairmanName:  "Ali Veli",
		ChairmanPhone: "5440001122",
	})

	require.NoError(t, err)
	assert.Equal(t, "ciglisirinyerucuncubolge", creds.Username)
}

func TestGenerateCredentials_ObserverWithBallotBox(t *testing.T) {
	creds, err := GenerateCredentials(model.Observer{
		ID:              "o-9",
		Name:            "Fatma Çelik",
		NationalID:      "98765432109",
		BallotBoxID:     "bb-1042",
		BallotBoxNumber: "1042",
		IsChief:         true,
	})

	require.NoError(t, err)
	assert.Equal(t, "1042", creds.Username)
	assert.Equal(t, "98765432109", creds.Password)
}

func TestGenerateCredentials_ObserverWithoutBallotBox(t *testing.T) {
	creds, err := GenerateCredentials(model.Observer{
		ID:         "o-10",
		Name:       "Hasan Kurt",
		NationalID: "11122233344",
		IsChief:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, "11122233344", creds.Username)
	assert.Equal(t, "11122233344", creds.Password)
}

func TestGenerateCredentials_PadsShortPassword(t *testing.T) {
	creds, err := GenerateCredentials(model.Member{
		ID:         "m-2",
		NationalID: "10000000001",
		Phone:      "12345",
	})

	require.NoError(t, err)
	assert.Equal(t, "012345", creds.Password)
	assert.Len(t, creds.Password, 6)
}

func TestGenerateCredentials_MissingAttributes(t *testing.T) {
	tests := []struct {
		name   string
		entity model.Entity
		field  string
	}{
		{"member without national id", model.Member{ID: "m-3", Phone: "5551112233"}, "national id"},
		{"member without phone", model.Member{ID: "m-4", NationalID: "123"}, "phone"},
		{"district without name", model.DistrictOfficial{DistrictID: "d-1", ChairmanPhone: "555"}, "district name"},
		{"district name with no letters", model.DistrictOfficial{DistrictID: "d-2", DistrictName: "---", ChairmanPhone: "555"}, "district name"},
		{"town without chairman phone", model.TownOfficial{TownID: "t-1", TownName: "Merkez"}, "chairman phone"},
		{"observer without any id", model.Observer{ID: "o-1", Name: "X"}, "ballot box number or national id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateCredentials(tt.entity)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestGenerateCredentials_Deterministic(t *testing.T) {
	member := model.Member{ID: "m-5", NationalID: "55544433322", Phone: "5319998877"}

	first, err := GenerateCredentials(member)
	require.NoError(t, err)
	second, err := GenerateCredentials(member)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCredentials_Email(t *testing.T) {
	creds := Credentials{Username: "ornekilce", Password: "5551112233"}
	assert.Equal(t, "ornekilce@uye.example.org", creds.Email("uye.example.org"))
}
