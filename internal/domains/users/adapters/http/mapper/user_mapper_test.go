package mapper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
)

func TestToUserInput_IgnoresIDAndCopiesPets(t *testing.T) {
	id, username := "client-id", "alice"
	pets := []string{"rex"}
	input := ToUserInput(User{ID: &id, Username: &username, Pets: &pets}, "  key-1 ")

	require.Equal(t, "", input.ID)
	require.Equal(t, "alice", *input.Username)
	require.Equal(t, "key-1", input.IdempotencyKey)
	require.Nil(t, input.Age)

	pets[0] = "tom"
	require.Equal(t, []string{"rex"}, *input.Pets)
}

func TestToUserInput_NilPetsStayUnset(t *testing.T) {
	input := ToUserInput(User{}, "")
	require.Nil(t, input.Pets)
	require.Nil(t, input.Username)
}

func TestFromUserViews(t *testing.T) {
	views := []types.UserView{
		{ID: "1", Username: "alice", Age: 30, Pets: []string{"rex"}},
		{ID: "2", Username: "bob"},
	}
	users := FromUserViews(views)
	require.Len(t, users, 2)
	require.Equal(t, "alice", *users[0].Username)
	require.Equal(t, 30, *users[0].Age)
	require.Equal(t, []string{"rex"}, *users[0].Pets)
	require.NotNil(t, users[1].Pets)
	require.Empty(t, *users[1].Pets)

	require.Equal(t, User{}, FromUserView(nil))
	require.Empty(t, FromUserViews(nil))
}
