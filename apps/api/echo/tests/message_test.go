package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/kanisahq/kanisa/core/group"
	"github.com/kanisahq/kanisa/core/member"
	"github.com/kanisahq/kanisa/core/messaging"
	"github.com/kanisahq/kanisa/core/user"
	emailsvc "github.com/kanisahq/kanisa/services/email"
	testutil "github.com/kanisahq/kanisa/tests"
)

func Test_messageApi_send(t *testing.T) {
	o := testutil.CreateOrg(t, orgRepo, "Message Church", "message-church")
	leader := testutil.CreateUser(t, usrRepo, o.ID, "Leader", "msgc.leader", "leader@msgc.cd", "", []string{user.RoleLeader}, true)
	token := getToken(t, leader)

	withEmail := func(email string) func(*member.Member) {
		return func(m *member.Member) { m.Email = email }
	}
	awe := testutil.CreateMember(t, mbrRepo, o.ID, "Awe", "Mwamba", member.StatusMember, withEmail("awe@msgc.cd"))
	king := testutil.CreateMember(t, mbrRepo, o.ID, "King", "Kasongo", member.StatusMember, withEmail("king@msgc.cd"))
	noEmail := testutil.CreateMember(t, mbrRepo, o.ID, "Hero", "Ilunga", member.StatusVisitor)

	choir := testutil.CreateGroup(t, grpRepo, o.ID, "Choir", group.KindGroup)
	testutil.AddGroupMember(t, grpRepo, choir.ID, king.ID)
	testutil.AddGroupMember(t, grpRepo, choir.ID, noEmail.ID)

	t.Run("no recipients selected", func(t *testing.T) {
		body := marshallObj(t, messaging.NewMessage{Subject: "Hello", Body: "Hi there"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/messages", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("unknown member is rejected", func(t *testing.T) {
		body := marshallObj(t, messaging.NewMessage{
			Subject:   "Hello",
			Body:      "Hi there",
			MemberIDs: []string{"b5bdbb86-3a41-4e42-9af1-75fb2c4a9a9b"},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/messages", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("sent to members and group, deduplicated", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		body := marshallObj(t, messaging.NewMessage{
			Subject:   "Harvest Sunday",
			Body:      "Join us this Sunday at 9am.",
			MemberIDs: []string{awe.ID, king.ID},
			GroupIDs:  []string{choir.ID},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/messages", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		var msg messaging.Message
		if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if msg.SenderID != leader.ID {
			t.Errorf("SenderID = %s; want %s", msg.SenderID, leader.ID)
		}
		// awe + king, king deduplicated across the member and group selections
		if msg.RecipientCount != 2 {
			t.Errorf("RecipientCount = %d; want 2", msg.RecipientCount)
		}
		// the group member without an email address
		if msg.SkippedCount != 1 {
			t.Errorf("SkippedCount = %d; want 1", msg.SkippedCount)
		}

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
		sent := emailsvc.SentMessages[0]
		if len(sent.Bcc) != 2 {
			t.Errorf("len(Bcc) = %d; want 2", len(sent.Bcc))
		}
		if sent.Subject != "Harvest Sunday" {
			t.Errorf("Subject = %s; want Harvest Sunday", sent.Subject)
		}
		if !strings.Contains(sent.TextContent, "Join us this Sunday") {
			t.Errorf("text content does not contain the body: %s", sent.TextContent)
		}
	})

	t.Run("message log", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/messages", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var msgs []messaging.Message
		if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(msgs) != 1 {
			t.Fatalf("len(msgs) = %d; want 1", len(msgs))
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/messages/"+msgs[0].ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("unknown message is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/messages/b5bdbb86-3a41-4e42-9af1-75fb2c4a9a9b", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusNotFound, rec.Body.String())
		}
	})
}
