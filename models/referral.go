package models

// ReferralNode is one user in a referral tree
type ReferralNode struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	TelegramID   int64          `json:"telegram_id"`
	ReferralLink string         `json:"referral_link"`
	InvitedCount int            `json:"invited_count"`
	ReferrerID   *int64         `json:"referrer_id,omitempty"`
	ReferredBy   *int64         `json:"referred_by,omitempty"`
	InvitedUsers []ReferralNode `json:"invited_users"`
}

// Referral is the current user's referral link and the users they invited
type Referral = ReferralNode

// Size counts every user below n
func (n *ReferralNode) Size() int {
	total := 0
	for i := range n.InvitedUsers {
		total += 1 + n.InvitedUsers[i].Size()
	}
	return total
}

// CheckReferralRequest binds a user to the owner of a referral link
type CheckReferralRequest struct {
	TelegramID   int64  `json:"telegram_id"`
	ReferralLink string `json:"referral_link"`
}

// CheckReferral is the reply of check_referral
type CheckReferral struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message"`
}

// ReferralBoundMessage is what the backend answers when the binding succeeded
const ReferralBoundMessage = "Пользователь успешно привязан"
