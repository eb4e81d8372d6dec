package poll

// Actor identifies the authenticated originator of a command invocation.
// The messaging gateway resolves guild membership and admin status before
// the request ever reaches this service.
type Actor struct {
	ID        string `json:"id"`
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	IsAdmin   bool   `json:"is_admin"`
}

// Privileged reports whether the actor may perform creator/admin actions
// on the given poll.
func (a Actor) Privileged(p *Poll) bool {
	return a.IsAdmin || p.IsCreator(a.ID)
}
