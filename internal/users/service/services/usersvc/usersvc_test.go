package usersvc

import (
	"context"
	"testing"

	"github.com/Pranav418/Ecommerce-Microservices-Architecture-RabbitMQ/internal/users/service/models/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[int64]user.User
}

func (f *fakeUserRepo) List(_ context.Context) ([]user.User, error) {
	var result []user.User
	for _, u := range f.users {
		result = append(result, u)
	}

	return result, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}

	return &u, nil
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, ids []int64) ([]user.User, error) {
	var result []user.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			result = append(result, u)
		}
	}

	return result, nil
}

func (f *fakeUserRepo) ReplaceAll(_ context.Context, users []user.User) error {
	f.users = make(map[int64]user.User, len(users))
	for _, u := range users {
		f.users[u.ID] = u
	}

	return nil
}

func TestGetUser_UnknownIdReturnsNil(t *testing.T) {
	t.Parallel()

	svc := MustNewUserService(WithUserRepository(&fakeUserRepo{users: map[int64]user.User{}}))

	u, err := svc.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestFetchUsers_SkipsUnknownIds(t *testing.T) {
	t.Parallel()

	svc := MustNewUserService(WithUserRepository(&fakeUserRepo{users: map[int64]user.User{
		1: {ID: 1, Username: "Pranav"},
	}}))

	users, err := svc.FetchUsers(context.Background(), []int64{1, 999})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Pranav", users[0].Username)
}

func TestSeedUsers(t *testing.T) {
	t.Parallel()

	repo := &fakeUserRepo{}
	svc := MustNewUserService(WithUserRepository(repo))

	require.NoError(t, svc.SeedUsers(context.Background()))
	assert.Len(t, repo.users, 2)
	assert.Equal(t, "Alex", repo.users[2].Username)
}
