package referrals

import (
	"net/http"

	"tgwallet/models"
	"tgwallet/query"
	"tgwallet/web/common"
	"tgwallet/web/session"
)

type referralsView struct {
	ReferralLink string                `json:"referral_link"`
	InvitedCount int                   `json:"invited_count"`
	TotalCount   int                   `json:"total_count"`
	InvitedUsers []models.ReferralNode `json:"invited_users"`
}

func (f *Feature) handleReferrals(w http.ResponseWriter, r *http.Request) {
	sess, ok := common.RequireSession(w, r)
	if !ok {
		return
	}

	state := query.Fetch(r.Context(), sess.Store, query.Query[*models.Referral]{
		Key: session.KeyReferrals,
		Fn:  f.referralService.GetUserReferrals,
	})

	common.RespondView(w, state, "", func(tree *models.Referral) any {
		if tree == nil {
			return referralsView{InvitedUsers: []models.ReferralNode{}}
		}
		invited := tree.InvitedUsers
		if invited == nil {
			invited = []models.ReferralNode{}
		}
		return referralsView{
			ReferralLink: tree.ReferralLink,
			InvitedCount: len(invited),
			TotalCount:   tree.Size(),
			InvitedUsers: invited,
		}
	})
}
