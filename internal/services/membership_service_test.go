package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dias221467/groupchat/internal/models"
	"github.com/Dias221467/groupchat/internal/realtime"
)

func assertDisjoint(t *testing.T, g models.Group) {
	t.Helper()
	for _, m := range g.Members {
		assert.False(t, models.ContainsID(g.JoinRequests, m), "member %s is also a requester", m.Hex())
	}
}

func TestPublicGroupJoinAndLeaveScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	u1 := h.users.add("Uma", "One")
	u2 := h.users.add("Ugo", "Two")
	gid := h.groups.put(models.Group{Name: "Gophers", Creator: c})

	status, err := svc.Join(ctx, gid.Hex(), u1.Hex())
	require.NoError(t, err)
	assert.Equal(t, JoinStatusJoined, status)

	status, err = svc.Join(ctx, gid.Hex(), u2.Hex())
	require.NoError(t, err)
	assert.Equal(t, JoinStatusJoined, status)

	joined := h.notifs.titled("New Member Joined")
	require.Len(t, joined, 2)
	assert.Equal(t, []primitive.ObjectID{c}, joined[0].VisibleTo)
	assert.Equal(t, []primitive.ObjectID{c, u1}, joined[1].VisibleTo)

	view, err := svc.Leave(ctx, gid.Hex(), u1.Hex())
	require.NoError(t, err)
	assert.Len(t, view.Members, 1)
	assert.Len(t, view.MemberAvatars, 1)

	left := h.notifs.titled("Member Left Group")
	require.Len(t, left, 1)
	assert.Equal(t, []primitive.ObjectID{c, u2}, left[0].VisibleTo)
	assert.Contains(t, left[0].Description, "Uma One")
	assert.Equal(t, models.ServerGroupSystem, left[0].Server)

	_, err = svc.Leave(ctx, gid.Hex(), u1.Hex())
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, []primitive.ObjectID{u2}, h.groups.get(gid).Members)
}

func TestPrivateGroupRequestAndRejectScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	u := h.users.add("Uma", "User")
	gid := h.groups.put(models.Group{Name: "Secret", Creator: c, IsPrivate: true})

	status, err := svc.Join(ctx, gid.Hex(), u.Hex())
	require.NoError(t, err)
	assert.Equal(t, JoinStatusPending, status)
	assert.Equal(t, []primitive.ObjectID{u}, h.groups.get(gid).JoinRequests)

	requests := h.notifs.titled("New Join Request")
	require.Len(t, requests, 1)
	assert.Equal(t, []primitive.ObjectID{c}, requests[0].VisibleTo)

	before := h.notifs.count()
	_, err = svc.Join(ctx, gid.Hex(), u.Hex())
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Join request already sent for this private group.", Message(err))
	assert.Equal(t, []primitive.ObjectID{u}, h.groups.get(gid).JoinRequests)
	assert.Equal(t, before, h.notifs.count())

	require.NoError(t, svc.RejectRequest(ctx, gid.Hex(), u.Hex()))
	assert.Empty(t, h.groups.get(gid).JoinRequests)

	err = svc.RejectRequest(ctx, gid.Hex(), u.Hex())
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "User not in join requests or already processed.", Message(err))
}

func TestAcceptRequestThenJoinConflicts(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	m := h.users.add("Max", "Member")
	u := h.users.add("Uma", "User")
	gid := h.groups.put(models.Group{Name: "Secret", Creator: c, IsPrivate: true, Members: []primitive.ObjectID{m}})

	_, err := svc.Join(ctx, gid.Hex(), u.Hex())
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, gid.Hex(), u.Hex()))

	g := h.groups.get(gid)
	assert.Equal(t, []primitive.ObjectID{m, u}, g.Members)
	assert.Empty(t, g.JoinRequests)
	assertDisjoint(t, g)

	joined := h.notifs.titled("New Member Joined")
	require.Len(t, joined, 1)
	assert.Equal(t, []primitive.ObjectID{c, m}, joined[0].VisibleTo)
	accepted := h.notifs.titled("Request Accepted")
	require.Len(t, accepted, 1)
	assert.Equal(t, []primitive.ObjectID{u}, accepted[0].VisibleTo)

	_, err = svc.Join(ctx, gid.Hex(), u.Hex())
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "You are already a member of this group.", Message(err))

	err = svc.AcceptRequest(ctx, gid.Hex(), u.Hex())
	require.ErrorIs(t, err, ErrConflict)
}

func TestCreatorCannotLeaveOrJoin(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	gid := h.groups.put(models.Group{Name: "Mine", Creator: c})

	_, err := svc.Leave(ctx, gid.Hex(), c.Hex())
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "Group creator cannot leave. You may delete the group.", Message(err))

	_, err = svc.Join(ctx, gid.Hex(), c.Hex())
	require.ErrorIs(t, err, ErrConflict)
}

func TestMembershipValidationAndNotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()
	u := h.users.add("Uma", "User")

	_, err := svc.Join(ctx, "bad", u.Hex())
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Join(ctx, primitive.NewObjectID().Hex(), u.Hex())
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Group not found", Message(err))

	_, err = svc.Leave(ctx, "bad", "worse")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Invalid groupId or userId", Message(err))

	err = svc.RejectRequest(ctx, primitive.NewObjectID().Hex(), "")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Missing userId", Message(err))
}

func TestCreateGroupKeepsListedCreatorButNotifiesOthers(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	a := h.users.add("Ana", "A")
	b := h.users.add("Ben", "B")

	view, err := svc.Create(ctx, CreateGroupInput{
		Name:      "Study",
		CreatorID: c.Hex(),
		Members:   []string{a.Hex(), b.Hex(), a.Hex(), c.Hex()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Study", view.Name)
	require.NotNil(t, view.Creator)
	assert.Equal(t, "Cleo", view.Creator.FirstName)
	assert.Len(t, view.Members, 3)
	assert.Len(t, view.MemberAvatars, 3)
	assert.Equal(t, []primitive.ObjectID{a, b, c}, h.groups.get(view.ID).Members)

	created := h.notifs.titled("New Group Created")
	require.Len(t, created, 1)
	assert.Equal(t, []primitive.ObjectID{a, b}, created[0].VisibleTo)
	assert.Equal(t, "2024-05-06", created[0].Date)
	assert.Equal(t, "07:08:09", created[0].Time)
	assert.Empty(t, created[0].IsReadBy)

	_, err = svc.Create(ctx, CreateGroupInput{Name: " ", CreatorID: c.Hex()})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddMembersSkipsExistingAndNotifiesBothSides(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	m := h.users.add("Max", "Member")
	n1 := h.users.add("Nia", "New")
	n2 := h.users.add("Ned", "New")
	gid := h.groups.put(models.Group{
		Name:         "Crew",
		Creator:      c,
		Members:      []primitive.ObjectID{m},
		JoinRequests: []primitive.ObjectID{n2},
	})

	added, err := svc.AddMembers(ctx, gid.Hex(), []string{m.Hex(), n1.Hex(), "", n2.Hex(), n1.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{n1, n2}, added)

	g := h.groups.get(gid)
	assert.Equal(t, []primitive.ObjectID{m, n1, n2}, g.Members)
	assertDisjoint(t, g)

	toAdded := h.notifs.titled("Added to Group")
	require.Len(t, toAdded, 1)
	assert.Equal(t, []primitive.ObjectID{n1, n2}, toAdded[0].VisibleTo)
	toOthers := h.notifs.titled("New Members Added")
	require.Len(t, toOthers, 1)
	assert.Equal(t, []primitive.ObjectID{c, m}, toOthers[0].VisibleTo)

	before := h.notifs.count()
	added, err = svc.AddMembers(ctx, gid.Hex(), []string{m.Hex(), n1.Hex()})
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Equal(t, before, h.notifs.count())

	_, err = svc.AddMembers(ctx, gid.Hex(), []string{"nope"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddMembersAcceptsCreator(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	m := h.users.add("Max", "Member")
	gid := h.groups.put(models.Group{Name: "Crew", Creator: c, Members: []primitive.ObjectID{m}})

	added, err := svc.AddMembers(ctx, gid.Hex(), []string{c.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{c}, added)
	assert.Equal(t, []primitive.ObjectID{m, c}, h.groups.get(gid).Members)

	toAdded := h.notifs.titled("Added to Group")
	require.Len(t, toAdded, 1)
	assert.Equal(t, []primitive.ObjectID{c}, toAdded[0].VisibleTo)
	toOthers := h.notifs.titled("New Members Added")
	require.Len(t, toOthers, 1)
	assert.Equal(t, []primitive.ObjectID{m}, toOthers[0].VisibleTo)

	added, err = svc.AddMembers(ctx, gid.Hex(), []string{c.Hex()})
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestMemberAvatarsDerivedFromUsers(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	plain := h.users.add("Pat", "Plain")
	fancy := h.users.add("Fay", "Fancy")
	h.users.users[fancy].Avatar = "https://cdn.example/fay.png"
	gid := h.groups.put(models.Group{Name: "Pics", Creator: c, Members: []primitive.ObjectID{plain, fancy}})

	view, err := svc.Get(ctx, gid.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://github.com/shadcn.png", "https://cdn.example/fay.png"}, view.MemberAvatars)

	view, err = svc.Leave(ctx, gid.Hex(), plain.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example/fay.png"}, view.MemberAvatars)
	assert.Equal(t, len(view.Members), len(view.MemberAvatars))
}

func TestListGroupsFiltersByParticipant(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	u := h.users.add("Uma", "User")
	h.groups.put(models.Group{Name: "Mine", Creator: c})
	h.groups.put(models.Group{Name: "Theirs", Creator: u, Members: []primitive.ObjectID{c}})
	h.groups.put(models.Group{Name: "Other", Creator: u})

	views, err := svc.List(ctx, c.Hex())
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, err = svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, views, 3)
}

func TestMembershipPushesNotificationsToOnlineUsers(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	svc := h.membership()

	c := h.users.add("Cleo", "Creator")
	u := h.users.add("Uma", "User")
	gid := h.groups.put(models.Group{Name: "Live", Creator: c, IsPrivate: true})
	creatorCh := h.pusher.connect(c)

	_, err := svc.Join(ctx, gid.Hex(), u.Hex())
	require.NoError(t, err)

	got := creatorCh.events(realtime.EventNotification)
	require.Len(t, got, 1)
	n, ok := got[0].Data.(*models.Notification)
	require.True(t, ok)
	assert.Equal(t, "New Join Request", n.Title)
	assert.Contains(t, h.publisher.keys, "notification.created")
}
