package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// projectPageLimit is the hard cap of the per-gizmo conversations endpoint.
const projectPageLimit = 50

// ListConversations drains the top-level conversation listing. Pass
// archived=true for the separate archived view; the flag is stamped onto
// every returned summary.
func (c *Client) ListConversations(ctx context.Context, archived bool) ([]ConversationSummary, error) {
	var all []ConversationSummary
	offset := 0
	total := 0

	for {
		q := url.Values{}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(c.pageLimit))
		q.Set("order", "updated")
		if archived {
			q.Set("is_archived", "true")
		}
		if c.workspaceID != "" {
			q.Set("workspace_id", c.workspaceID)
		}

		var page conversationPage
		if err := c.getJSON(ctx, "/backend-api/conversations?"+q.Encode(), &page); err != nil {
			return all, err
		}

		for _, item := range page.Items {
			item.IsArchived = archived || item.IsArchived
			all = append(all, item)
		}

		total = page.Total
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= total {
			break
		}
	}

	if total > 0 && len(all) < total {
		c.log.Warn().Int("reported", total).Int("returned", len(all)).
			Msg("listing returned fewer conversations than the API reported; some may be inaccessible")
	}
	return all, nil
}

// ListProjectConversations drains the conversation listing of one project
// folder. The endpoint caps pages at 50 regardless of the configured limit.
func (c *Client) ListProjectConversations(ctx context.Context, projectID string) ([]ConversationSummary, error) {
	var all []ConversationSummary
	offset := 0

	for {
		path := fmt.Sprintf("/backend-api/gizmos/%s/conversations?offset=%d&limit=%d",
			projectID, offset, projectPageLimit)

		var page conversationPage
		if err := c.getJSON(ctx, path, &page); err != nil {
			return all, err
		}

		all = append(all, page.Items...)
		offset += len(page.Items)
		if len(page.Items) < projectPageLimit {
			break
		}
		if page.Total > 0 && offset >= page.Total {
			break
		}
	}
	return all, nil
}

// ListAll enumerates every reachable conversation exactly once: the active
// listing, the archived listing, and each project folder's own listing
// (project conversations do not always appear in the top-level view). Extra
// project ids from configuration are merged with the ones discovered from
// g-p- gizmo tags. Per-page fetch exhaustion degrades to a warning; only
// auth failures abort enumeration.
func (c *Client) ListAll(ctx context.Context, extraProjectIDs []string) ([]ConversationSummary, error) {
	active, err := c.ListConversations(ctx, false)
	if err != nil {
		if !degradable(err) {
			return nil, err
		}
		c.log.Warn().Err(err).Msg("active listing incomplete")
	}

	archived, err := c.ListConversations(ctx, true)
	if err != nil {
		if !degradable(err) {
			return nil, err
		}
		c.log.Warn().Err(err).Msg("archived listing incomplete")
	}

	seen := make(map[string]struct{})
	var all []ConversationSummary
	add := func(s ConversationSummary) {
		if s.ID == "" {
			return
		}
		if _, dup := seen[s.ID]; dup {
			return
		}
		seen[s.ID] = struct{}{}
		all = append(all, s)
	}

	projectIDs := make(map[string]struct{})
	for _, id := range extraProjectIDs {
		projectIDs[id] = struct{}{}
	}

	for _, s := range append(active, archived...) {
		if IsProject(s.GizmoID) {
			projectIDs[s.GizmoID] = struct{}{}
			s.ProjectID = s.GizmoID
			s.GizmoID = ""
		}
		add(s)
	}

	// stable order so re-runs visit projects identically
	ids := make([]string, 0, len(projectIDs))
	for id := range projectIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, pid := range ids {
		convos, err := c.ListProjectConversations(ctx, pid)
		if err != nil {
			if !degradable(err) {
				return nil, err
			}
			c.log.Warn().Str("project", pid).Err(err).Msg("skipping project listing")
		}
		name := c.GizmoName(ctx, pid)
		for _, s := range convos {
			s.ProjectID = pid
			s.ProjectName = name
			s.GizmoID = ""
			add(s)
		}
	}

	// name the custom GPTs that tagged anything we kept
	for i := range all {
		switch {
		case all[i].ProjectID != "" && all[i].ProjectName == "":
			all[i].ProjectName = c.GizmoName(ctx, all[i].ProjectID)
		case all[i].GizmoID != "":
			all[i].GizmoName = c.GizmoName(ctx, all[i].GizmoID)
		}
	}

	return all, nil
}

// degradable reports whether an enumeration error should downgrade to a
// warning instead of killing the run.
func degradable(err error) bool {
	if err == nil {
		return true
	}
	var fe *FetchError
	return errors.As(err, &fe)
}
