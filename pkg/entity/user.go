package entity

import (
	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

// UserData is the wire form of a user.
type UserData struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator,omitempty"`
	Avatar        *string `json:"avatar,omitempty"`
	Bot           bool    `json:"bot,omitempty"`
}

// User is a Fluxer account.
type User struct {
	ID            string
	Username      string
	Discriminator string
	Avatar        string
	Bot           bool

	requester *rest.Requester
}

// NewUser builds a user from wire data.
func NewUser(d UserData, r *rest.Requester) *User {
	u := &User{
		ID:            d.ID,
		Username:      d.Username,
		Discriminator: d.Discriminator,
		Bot:           d.Bot,
		requester:     r,
	}
	if u.Discriminator == "" {
		u.Discriminator = "0000"
	}
	if d.Avatar != nil {
		u.Avatar = *d.Avatar
	}
	return u
}

// String returns "username#discriminator".
func (u *User) String() string {
	return u.Username + "#" + u.Discriminator
}

// Mention returns the mention markup for the user.
func (u *User) Mention() string {
	return "<@" + u.ID + ">"
}

type dmPayload struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

// OpenPrivateChannel opens (or fetches) the direct message channel with u.
func (u *User) OpenPrivateChannel() (*rest.Action[*Channel], error) {
	return rest.NewAction(u.requester, rest.CreateDM.Compile(), channelParser(u.requester, nil)).
		SetBody(dmPayload{RecipientID: u.ID})
}

// RetrieveUser fetches a user by id.
func RetrieveUser(r *rest.Requester, id string) *rest.Action[*User] {
	return rest.NewAction(r, rest.GetUser.Compile(id), func(body []byte) (*User, error) {
		var d UserData
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, err
		}
		return NewUser(d, r), nil
	})
}

// RetrieveSelf fetches the authenticated user.
func RetrieveSelf(r *rest.Requester) *rest.Action[*User] {
	return rest.NewAction(r, rest.GetMe.Compile(), func(body []byte) (*User, error) {
		var d UserData
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, err
		}
		return NewUser(d, r), nil
	})
}

// UserProfileData is the wire form of a profile lookup.
type UserProfileData struct {
	User        UserData `json:"user"`
	UserProfile struct {
		Bio         *string `json:"bio"`
		Pronouns    *string `json:"pronouns"`
		Banner      *string `json:"banner"`
		AccentColor *int    `json:"accent_color"`
	} `json:"user_profile"`
	GuildMember *struct {
		Nick     *string `json:"nick"`
		JoinedAt string  `json:"joined_at"`
	} `json:"guild_member"`
}

// UserProfile is a user's public profile, optionally scoped to a guild.
type UserProfile struct {
	User        *User
	Bio         string
	Pronouns    string
	BannerHash  string
	AccentColor *int

	// Nickname and JoinedAt are set when the profile was fetched for a guild.
	Nickname string
	JoinedAt string
}

// NewUserProfile builds a profile from wire data.
func NewUserProfile(d UserProfileData, r *rest.Requester) *UserProfile {
	p := &UserProfile{
		User:        NewUser(d.User, r),
		Bio:         deref(d.UserProfile.Bio),
		Pronouns:    deref(d.UserProfile.Pronouns),
		BannerHash:  deref(d.UserProfile.Banner),
		AccentColor: d.UserProfile.AccentColor,
	}
	if d.GuildMember != nil {
		p.Nickname = deref(d.GuildMember.Nick)
		p.JoinedAt = d.GuildMember.JoinedAt
	}
	return p
}

// BannerURL returns the banner image URL, or "" when there is none.
func (p *UserProfile) BannerURL() string {
	if p.BannerHash == "" {
		return ""
	}
	return CDNURL + "/banners/" + p.User.ID + "/" + p.BannerHash + ".png"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
