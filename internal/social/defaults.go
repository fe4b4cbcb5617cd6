package social

import (
	"fmt"
	"time"
)

func avatarURL(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/200/200", seed)
}

func imageURL(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/600/400", seed)
}

// DefaultContacts returns the built-in contact list.
func DefaultContacts() []Contact {
	return []Contact{
		{ID: "c1", Name: "Hardik", AvatarURL: avatarURL("hardik"), Circle: CircleCloseFriends, Channels: []Channel{ChannelInstagram, ChannelWhatsApp}},
		{ID: "c2", Name: "Arpit", AvatarURL: avatarURL("arpit"), Circle: CircleCloseFriends, Channels: []Channel{ChannelWhatsApp}},
		{ID: "c3", Name: "Mom", AvatarURL: avatarURL("mom"), Circle: CircleFamily, Channels: []Channel{ChannelWhatsApp, ChannelEmail}},
		{ID: "c4", Name: "Rashi", AvatarURL: avatarURL("rashi"), Circle: CircleCloseFriends, Channels: []Channel{ChannelWhatsApp, ChannelSMS}},
		{ID: "c5", Name: "Dad", AvatarURL: avatarURL("dad"), Circle: CircleFamily, Channels: []Channel{ChannelEmail}},
	}
}

// DefaultUpdates returns the built-in updates with timestamps relative to now.
func DefaultUpdates(now time.Time) []Update {
	return []Update{
		{
			ID: "u1", ContactID: "c1", Type: UpdatePost, Channel: ChannelInstagram,
			Content:       "Just posted from his recent trip to Ladakh, check the pictures it looks amazing.",
			ImageURL:      imageURL("ladakh"),
			Timestamp:     now.Add(-2 * time.Hour),
			PriorityScore: 95,
		},
		{
			ID: "u2", ContactID: "c2", Type: UpdateMessage, Channel: ChannelWhatsApp,
			Content:       "Shared his new scooter purchase picture in your 'School Buddies' group.",
			ImageURL:      imageURL("scooter"),
			Timestamp:     now.Add(-45 * time.Minute),
			PriorityScore: 88,
		},
		{
			ID: "u3", ContactID: "c3", Type: UpdateMessage, Channel: ChannelWhatsApp,
			Content:       "Sent you their new dish that they made. 'Look at this Paneer Tikka we tried!'",
			ImageURL:      imageURL("food"),
			Timestamp:     now.Add(-15 * time.Minute),
			PriorityScore: 90,
		},
		{
			ID: "u4", ContactID: "c4", Type: UpdateRequest, Channel: ChannelWhatsApp,
			Content:       "Is asking if she can use your card to pay for her appointment.",
			ImageURL:      imageURL("clinic"),
			Timestamp:     now.Add(-5 * time.Minute),
			PriorityScore: 99,
		},
	}
}
