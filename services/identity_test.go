package services

import (
	"context"
	"errors"
	"testing"

	"samadhan-setu/models"
	"samadhan-setu/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens struct{}

func (stubTokens) Generate(user *models.User) (string, error) {
	return "token-" + user.ID.Hex(), nil
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	identity := NewIdentity(discardLogger(), repository.NewMemory().Users(), stubTokens{}, false)

	user, err := identity.Register(ctx, RegisterInput{Name: " Meera ", Email: "Meera@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Meera", user.Name)
	assert.Equal(t, "meera@example.com", user.Email)
	assert.Equal(t, models.RoleCitizen, user.Role)
	assert.NotEqual(t, "secret1", user.Password)

	_, err = identity.Register(ctx, RegisterInput{Name: "Other", Email: "meera@example.com", Password: "secret1"})
	assert.True(t, errors.Is(err, models.ErrAlreadyExists))

	result, err := identity.Login(ctx, "MEERA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "token-"+user.ID.Hex(), result.Token)
	assert.Equal(t, user.ID, result.User.ID)

	_, err = identity.Login(ctx, "meera@example.com", "wrong")
	assert.True(t, errors.Is(err, models.ErrUnauthorized))

	_, err = identity.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, errors.Is(err, models.ErrUnauthorized))

	me, err := identity.Me(ctx, user.Caller())
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)

	exists, err := identity.Exists(ctx, user.Caller())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRegisterValidation(t *testing.T) {
	identity := NewIdentity(discardLogger(), repository.NewMemory().Users(), stubTokens{}, true)

	_, err := identity.Register(context.Background(), RegisterInput{Name: "A", Email: "not-an-email", Password: "123"})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := []string{}
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password"}, fields)

	_, err = identity.Register(context.Background(), RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", Role: "mayor"})
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestStaffSignup(t *testing.T) {
	ctx := context.Background()
	in := RegisterInput{Name: "Ravi", Email: "ravi@example.com", Password: "secret1", Role: "worker"}

	closed := NewIdentity(discardLogger(), repository.NewMemory().Users(), stubTokens{}, false)
	_, err := closed.Register(ctx, in)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	open := NewIdentity(discardLogger(), repository.NewMemory().Users(), stubTokens{}, true)
	user, err := open.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleWorker, user.Role)
}

func TestListWorkers(t *testing.T) {
	ctx := context.Background()
	identity := NewIdentity(discardLogger(), repository.NewMemory().Users(), stubTokens{}, true)

	admin, err := identity.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret1", Role: "admin"})
	require.NoError(t, err)
	worker, err := identity.Register(ctx, RegisterInput{Name: "Ravi", Email: "ravi@example.com", Password: "secret1", Role: "worker"})
	require.NoError(t, err)

	workers, err := identity.ListWorkers(ctx, admin.Caller())
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, worker.ID, workers[0].ID)

	_, err = identity.ListWorkers(ctx, worker.Caller())
	assert.True(t, errors.Is(err, models.ErrForbidden))
}
