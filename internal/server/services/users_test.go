package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/logging"
	"github.com/dmitrijs2005/gophplaces/internal/server/auth"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc     *UserService
	store   *memStore
	storage *fakeStorage
	issuer  *fakeIssuer
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	db, _ := newSQLMockDB(t)

	f := &userFixture{
		store:   newMemStore(),
		storage: &fakeStorage{},
		issuer:  &fakeIssuer{},
	}
	f.svc = NewUserService(db, &fakeRepoManager{s: f.store}, f.storage, f.issuer, logging.Discard())
	return f
}

func annSignup(img *models.ImageUpload) SignupInput {
	return SignupInput{Name: "Ann", Email: "  Ann@X.com ", Password: "secret1", Image: img}
}

func TestSignup_Success(t *testing.T) {
	f := newUserFixture(t)

	res, err := f.svc.Signup(context.Background(), annSignup(pngUpload))
	require.NoError(t, err)
	assert.NotEmpty(t, res.UserID)
	assert.Equal(t, "ann@x.com", res.Email)
	assert.Equal(t, "token-"+res.UserID, res.Token)
	assert.Equal(t, []string{"users"}, f.storage.uploads)

	stored := f.store.users[res.UserID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))
	assert.True(t, auth.CheckPassword("secret1", stored.PasswordHash))
	require.NotNil(t, stored.Image)
	assert.Equal(t, "users/obj-1", stored.Image.Key)
}

func TestSignup_EmailTakenIsCheckedFirst(t *testing.T) {
	f := newUserFixture(t)
	f.store.addUser(&models.User{ID: "u1", Email: "ann@x.com"})

	_, err := f.svc.Signup(context.Background(), annSignup(pngUpload))
	assert.ErrorIs(t, err, common.ErrEmailTaken)
	assert.Empty(t, f.storage.uploads)
	assert.Empty(t, f.store.callsTo("users.Create"))
}

func TestSignup_UniqueRaceDeletesUpload(t *testing.T) {
	f := newUserFixture(t)
	f.store.failOn["users.Create"] = common.ErrorAlreadyExists

	_, err := f.svc.Signup(context.Background(), annSignup(pngUpload))
	assert.ErrorIs(t, err, common.ErrEmailTaken)
	assert.Equal(t, []string{"users/obj-1"}, f.storage.deleted)
}

func TestSignup_WriteFailureDeletesUpload(t *testing.T) {
	f := newUserFixture(t)
	f.store.failOn["users.Create"] = errors.New("db down")

	_, err := f.svc.Signup(context.Background(), annSignup(pngUpload))
	assert.ErrorIs(t, err, common.ErrPersistenceFailed)
	assert.Equal(t, []string{"users/obj-1"}, f.storage.deleted)
}

func TestSignup_UploadFailure(t *testing.T) {
	f := newUserFixture(t)
	f.storage.uploadErr = errors.New("bucket missing")

	_, err := f.svc.Signup(context.Background(), annSignup(pngUpload))
	assert.ErrorIs(t, err, common.ErrUploadFailed)
	assert.Empty(t, f.store.callsTo("users.Create"))
}

func TestSignup_LookupFailure(t *testing.T) {
	f := newUserFixture(t)
	f.store.failOn["users.GetByEmail"] = errors.New("db down")

	_, err := f.svc.Signup(context.Background(), annSignup(nil))
	assert.ErrorIs(t, err, common.ErrPersistenceFailed)
}

func TestSignup_TokenFailure(t *testing.T) {
	f := newUserFixture(t)
	f.issuer.err = errors.New("signing failed")

	_, err := f.svc.Signup(context.Background(), annSignup(nil))
	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestLogin(t *testing.T) {
	f := newUserFixture(t)
	signed, err := f.svc.Signup(context.Background(), annSignup(nil))
	require.NoError(t, err)

	res, err := f.svc.Login(context.Background(), "ANN@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, signed.UserID, res.UserID)
	assert.Equal(t, "token-"+signed.UserID, res.Token)
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	f := newUserFixture(t)
	_, err := f.svc.Signup(context.Background(), annSignup(nil))
	require.NoError(t, err)

	res1, wrongPassword := f.svc.Login(context.Background(), "ann@x.com", "wrong-password")
	res2, unknownEmail := f.svc.Login(context.Background(), "nobody@x.com", "secret1")

	assert.Nil(t, res1)
	assert.Nil(t, res2)
	assert.Equal(t, common.ErrInvalidCredentials, wrongPassword)
	assert.Equal(t, wrongPassword, unknownEmail)
}

func TestLogin_LookupFailure(t *testing.T) {
	f := newUserFixture(t)
	f.store.failOn["users.GetByEmail"] = errors.New("db down")

	_, err := f.svc.Login(context.Background(), "ann@x.com", "secret1")
	assert.ErrorIs(t, err, common.ErrPersistenceFailed)
}

func TestListUsers_ExcludesPasswordHash(t *testing.T) {
	f := newUserFixture(t)
	f.store.addUser(&models.User{ID: "u1", Name: "Ann", Email: "ann@x.com", PasswordHash: "h1"})
	f.store.addUser(&models.User{ID: "u2", Name: "Bob", Email: "bob@x.com", PasswordHash: "h2"})
	f.store.addPlace(&models.Place{ID: "p1", OwnerID: "u1"})

	list, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, u := range list {
		assert.Empty(t, u.PasswordHash)
	}
	assert.Equal(t, []string{"p1"}, list[0].PlaceIDs)
	assert.Empty(t, list[1].PlaceIDs)

	f.store.failOn["users.List"] = errors.New("db down")
	_, err = f.svc.List(context.Background())
	assert.ErrorIs(t, err, common.ErrPersistenceFailed)
}
