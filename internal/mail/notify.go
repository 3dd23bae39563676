package mail

import (
	"context"
	"net/url"
	"strings"

	"demsausage-api/internal/models"
	"demsausage-api/internal/noms"
)

const (
	subjectSubmitted = "Your Democracy Sausage stall has been received!"
	subjectApproved  = "Your Democracy Sausage stall has been approved!"
)

// ConfirmStore：确认状态的持久化
type ConfirmStore interface {
	HasConfirmedMail(ctx context.Context, email string) (bool, error)
	SetMailConfirmation(ctx context.Context, id int, confirmed bool, key string) error
}

// Notifier：摊位提交与审核通过的通知
type Notifier struct {
	Sender    Sender
	Store     ConfirmStore
	Confirmer Confirmer
	// OptOutURL：退订入口的完整 URL（不含查询串）
	OptOutURL string
}

// Location：邮件里展示的位置；选举未加载投票点时取提交者填写的 location_info
func Location(st models.Stall, pp *models.PollingPlace) (name, address string) {
	if pp != nil {
		return pp.Name, pp.Address
	}
	if st.LocationInfo != nil {
		return st.LocationInfo.Name, st.LocationInfo.Address
	}
	return "", ""
}

func baseParams(st models.Stall, pp *models.PollingPlace) TemplateParams {
	name, addr := Location(st, pp)
	return TemplateParams{
		PollingPlaceName:    name,
		PollingPlaceAddress: addr,
		StallName:           st.Name,
		StallDescription:    st.Description,
		StallWebsite:        st.Website,
		Deliciousness:       noms.Describe(st.Noms),
	}
}

// StallSubmitted：提交确认邮件
func (n *Notifier) StallSubmitted(ctx context.Context, st models.Stall, pp *models.PollingPlace) error {
	html, err := Render(TemplateStallSubmitted, baseParams(st, pp))
	if err != nil {
		return err
	}
	return n.Sender.Send(ctx, Message{To: st.Email, Subject: subjectSubmitted, HTML: html, Template: TemplateStallSubmitted})
}

// StallApproved：审核通过邮件
// 约束：该邮箱从未确认过时，先记录确认码再发送带退订链接的版本
func (n *Notifier) StallApproved(ctx context.Context, st models.Stall, pp *models.PollingPlace) error {
	name := TemplateStallApproved
	p := baseParams(st, pp)
	confirmed, err := n.Store.HasConfirmedMail(ctx, st.Email)
	if err != nil {
		return err
	}
	if !confirmed {
		key := n.Confirmer.MakeHash(st.Email, st.ID)
		if err := n.Store.SetMailConfirmation(ctx, st.ID, true, key); err != nil {
			return err
		}
		name = TemplateStallApprovedOptOut
		p.ConfirmOptOutURL = strings.TrimRight(n.OptOutURL, "?") + "?confirm_key=" + url.QueryEscape(key)
	}
	html, err := Render(name, p)
	if err != nil {
		return err
	}
	return n.Sender.Send(ctx, Message{To: st.Email, Subject: subjectApproved, HTML: html, Template: name})
}
