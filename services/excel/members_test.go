package excelsvc

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanisahq/kanisa/core"
	"github.com/kanisahq/kanisa/core/member"
	inmemdb "github.com/kanisahq/kanisa/storage/database/inmem"
)

func setup(t *testing.T) (member.ServiceInterface, *validator.Validate) {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	conf := &core.Config{Debug: true, TestMode: true}
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	member.InitValidators(validate, translator)

	svc := member.NewService(nil, inmemdb.NewMemberRepository(db), nil, conf)
	return svc, validate
}

func TestExportImportMembers(t *testing.T) {
	svc, validate := setup(t)
	ctx := context.Background()
	orgID := "5a99f9a1-3c40-4894-9f18-d2c57a093b7d"

	members := []member.Member{
		{
			FirstName: "Awe",
			LastName:  "Mwamba",
			Gender:    "male",
			Email:     "awe@kanisa.test",
			Status:    member.StatusMember,
			JoinedAt:  time.Date(2021, time.March, 7, 0, 0, 0, 0, time.UTC),
		},
		{
			FirstName: "Grace",
			LastName:  "Kasongo",
			Gender:    "female",
			Status:    member.StatusVisitor,
			BirthDate: time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	buf, err := ExportMembers(members)
	require.NoError(t, err)
	require.NotZero(t, buf.Len())

	res, err := ImportMembers(ctx, svc, validate, orgID, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Skipped)
	assert.Empty(t, res.Errors)

	imported, err := svc.Query(ctx, orgID, &member.QueryFilter{}, nil)
	require.NoError(t, err)
	require.Len(t, imported, 2)

	got, err := svc.Query(ctx, orgID, &member.QueryFilter{Search: "mwamba"}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Awe", got[0].FirstName)
	assert.Equal(t, "awe@kanisa.test", got[0].Email)
	assert.Equal(t, member.StatusMember, got[0].Status)
	assert.Equal(t, members[0].JoinedAt, got[0].JoinedAt)
}

func TestImportMembersRowErrors(t *testing.T) {
	svc, validate := setup(t)
	ctx := context.Background()
	orgID := "0f1f9b1b-9a57-4d56-8e5d-0f43a1b5d1aa"

	buf, err := ExportMembers([]member.Member{
		{FirstName: "Good", LastName: "Row", Status: member.StatusVisitor},
		{FirstName: "Bad", LastName: "Gender", Gender: "???", Status: member.StatusVisitor},
		{FirstName: "", LastName: "NoFirstName", Status: member.StatusVisitor},
	})
	require.NoError(t, err)

	res, err := ImportMembers(ctx, svc, validate, orgID, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Errors, 2)
	// 1-based rows, header is row 1
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, 4, res.Errors[1].Row)

	got, err := svc.Query(ctx, orgID, &member.QueryFilter{}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Good", got[0].FirstName)
}

func TestParseMemberRowDates(t *testing.T) {
	nm, err := parseMemberRow([]string{"Awe", "Mwamba", "", "", "", "", "1990-06-15", "", "member", "2021-03-07"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC), nm.BirthDate)
	assert.Equal(t, time.Date(2021, time.March, 7, 0, 0, 0, 0, time.UTC), nm.JoinedAt)

	_, err = parseMemberRow([]string{"Awe", "Mwamba", "", "", "", "", "15/06/1990"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid birth date")
}
