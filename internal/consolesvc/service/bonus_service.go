package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/avvvet/console-services/internal/consolesvc/api"
	"github.com/avvvet/console-services/internal/consolesvc/models"
	"github.com/avvvet/console-services/internal/consolesvc/rules"
	"github.com/avvvet/console-services/internal/consolesvc/session"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type SegmentOption struct {
	ID    rules.Segment `json:"id"`
	Label string        `json:"label"`
}

type BonusView struct {
	Templates      []models.BonusTemplate `json:"templates"`
	TemplatesError *SectionError          `json:"templates_error,omitempty"`
	Campaigns      []models.BonusCampaign `json:"campaigns"`
	CampaignsError *SectionError          `json:"campaigns_error,omitempty"`
	Segments       []SegmentOption        `json:"segments"`
	Types          []models.BonusType     `json:"types"`
}

type BonusService struct {
	connect Connector
	guard   *SubmitGuard
	audit   *Auditor
}

func NewBonusService(connect Connector, guard *SubmitGuard, audit *Auditor) *BonusService {
	return &BonusService{connect: connect, guard: guard, audit: audit}
}

func (s *BonusService) Overview(ctx context.Context, sess *session.Session) (BonusView, error) {
	if _, err := authorize(sess, rules.SectionBonusManagement); err != nil {
		return BonusView{}, err
	}

	view := BonusView{
		Templates: []models.BonusTemplate{},
		Campaigns: []models.BonusCampaign{},
		Types:     models.BonusTypes,
	}
	for _, seg := range rules.AllSegments {
		view.Segments = append(view.Segments, SegmentOption{ID: seg, Label: seg.Label()})
	}

	p := s.connect(sess)
	var g errgroup.Group
	g.Go(func() error {
		t, err := p.BonusTemplates(ctx)
		if view.TemplatesError, err = sectionFailure("bonus_templates", err); err != nil {
			return err
		}
		if t != nil {
			view.Templates = t
		}
		return nil
	})
	g.Go(func() error {
		c, err := p.BonusCampaigns(ctx)
		if view.CampaignsError, err = sectionFailure("bonus_campaigns", err); err != nil {
			return err
		}
		if c != nil {
			view.Campaigns = c
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return BonusView{}, err
	}
	return view, nil
}

// Issue validates the form and sends one issuance request for the target
// segment.
func (s *BonusService) Issue(ctx context.Context, sess *session.Session, form rules.BonusForm) (models.IssueResult, error) {
	admin, err := authorize(sess, rules.SectionBonusManagement)
	if err != nil {
		return models.IssueResult{}, err
	}
	req, err := rules.BuildIssue(form)
	if err != nil {
		return models.IssueResult{}, err
	}

	release, err := s.guard.Acquire(sess.ID() + ":bonus_issue")
	if err != nil {
		return models.IssueResult{}, err
	}
	defer release()

	p := s.connect(sess)
	res, err := p.IssueBonus(ctx, req)
	if err != nil && req.TemplateID == nil && endpointMissing(err) {
		// platforms without template support only know create-campaign
		log.Warn("bonus issue endpoint missing, falling back to create-campaign")
		res, err = p.CreateCampaign(ctx, req)
	}
	if err != nil {
		return models.IssueResult{}, err
	}

	s.audit.Log(ctx, admin, string(rules.SectionBonusManagement), "bonus_issued", req.Target, describeIssue(req, res))
	return res, nil
}

func (s *BonusService) Assign(ctx context.Context, sess *session.Session, form rules.AssignForm) (models.IssueResult, error) {
	admin, err := authorize(sess, rules.SectionBonusManagement)
	if err != nil {
		return models.IssueResult{}, err
	}
	req, err := rules.BuildAssign(form)
	if err != nil {
		return models.IssueResult{}, err
	}

	release, err := s.guard.Acquire(sess.ID() + ":bonus_assign")
	if err != nil {
		return models.IssueResult{}, err
	}
	defer release()

	res, err := s.connect(sess).AssignBonus(ctx, req)
	if err != nil {
		return models.IssueResult{}, err
	}

	s.audit.Log(ctx, admin, string(rules.SectionBonusManagement), "bonus_assigned",
		strconv.FormatInt(req.UserID, 10), fmt.Sprintf("%s %q amount=%s", req.Type, req.Title, req.Amount))
	return res, nil
}

func endpointMissing(err error) bool {
	var ae *api.APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

func describeIssue(req models.BonusIssue, res models.IssueResult) string {
	var what string
	if req.TemplateID != nil {
		what = fmt.Sprintf("template=%d", *req.TemplateID)
	} else {
		what = fmt.Sprintf("%s %q amount=%s", req.Type, req.Title, req.Amount)
	}
	switch {
	case res.IsCampaign():
		return fmt.Sprintf("%s assigned_count=%d", what, *res.AssignedCount)
	case res.IsSingle():
		return fmt.Sprintf("%s assigned_to=%d", what, *res.AssignedTo)
	}
	return what
}
