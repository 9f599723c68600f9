package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailfly/backend/internal/domain"
	"mailfly/backend/internal/storage/memory"
)

// fakeParser 返回预设的解析结果。
type fakeParser struct {
	result *ParsedMail
	err    error
}

func (p *fakeParser) Parse(raw []byte) (*ParsedMail, error) {
	return p.result, p.err
}

// fakeForwarder 记录转发调用，可注入失败。
type fakeForwarder struct {
	calls int
	to    string
	err   error
}

func (f *fakeForwarder) Forward(from, to string, raw []byte) error {
	f.calls++
	f.to = to
	return f.err
}

func newTestIngest(parser Parser, forwarder Forwarder) (*IngestService, *memory.Store, *InboxService) {
	store := memory.NewStore()
	inboxes := NewInboxService(store, []string{"temp.mail"}, 24*time.Hour, zap.NewNop())
	return NewIngestService(store, parser, forwarder, zap.NewNop()), store, inboxes
}

func TestIngestService_Ingest(t *testing.T) {
	t.Run("HTML正文优先存储", func(t *testing.T) {
		svc, store, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{HTML: "<p>hi</p>", Text: "hi"}}, nil)
		created, err := inboxes.Create("target", "", "")
		require.NoError(t, err)

		err = svc.Ingest(&Envelope{
			To:      created.Address,
			From:    "sender@example.com",
			Subject: "greeting",
			Raw:     []byte("raw bytes"),
		})
		require.NoError(t, err)

		emails, err := store.ListEmails(created.Address)
		require.NoError(t, err)
		require.Len(t, emails, 1)

		email, err := store.GetEmail(emails[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", email.Body)
		assert.Equal(t, "raw bytes", email.Raw)
		assert.Equal(t, "greeting", email.Subject)
	})

	t.Run("纯文本转义后包进pre块", func(t *testing.T) {
		svc, store, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{Text: "a <b> & c"}}, nil)
		created, err := inboxes.Create("plain", "", "")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(&Envelope{To: created.Address, From: "s@e.com", Subject: "x", Raw: []byte("r")}))

		emails, _ := store.ListEmails(created.Address)
		email, err := store.GetEmail(emails[0].ID)
		require.NoError(t, err)
		assert.Contains(t, email.Body, "a &lt;b&gt; &amp; c")
		assert.Contains(t, email.Body, "<pre style=")
	})

	t.Run("无正文时存占位内容", func(t *testing.T) {
		svc, store, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{}}, nil)
		created, err := inboxes.Create("emptybody", "", "")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(&Envelope{To: created.Address, From: "s@e.com", Subject: "x", Raw: []byte("r")}))

		emails, _ := store.ListEmails(created.Address)
		email, _ := store.GetEmail(emails[0].ID)
		assert.Equal(t, placeholderNoBody, email.Body)
	})

	t.Run("解析失败降级为占位内容而不丢邮件", func(t *testing.T) {
		svc, store, inboxes := newTestIngest(&fakeParser{err: errors.New("broken mime")}, nil)
		created, err := inboxes.Create("broken", "", "")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(&Envelope{To: created.Address, From: "s@e.com", Subject: "x", Raw: []byte("garbage")}))

		emails, _ := store.ListEmails(created.Address)
		require.Len(t, emails, 1)
		email, _ := store.GetEmail(emails[0].ID)
		assert.Equal(t, placeholderParseFailed, email.Body)
		assert.Equal(t, "garbage", email.Raw)
	})

	t.Run("空主题使用默认主题", func(t *testing.T) {
		svc, store, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{Text: "hi"}}, nil)
		created, err := inboxes.Create("nosubject", "", "")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(&Envelope{To: created.Address, From: "s@e.com", Raw: []byte("r")}))

		emails, _ := store.ListEmails(created.Address)
		assert.Equal(t, defaultSubject, emails[0].Subject)
	})

	t.Run("投递到不存在的邮箱被拒绝且不落库", func(t *testing.T) {
		svc, store, _ := newTestIngest(&fakeParser{result: &ParsedMail{Text: "hi"}}, nil)

		err := svc.Ingest(&Envelope{To: "nobody@temp.mail", From: "s@e.com", Subject: "x", Raw: []byte("r")})
		assert.Error(t, err)

		total, err := store.CountStats()
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("投递到过期邮箱同样被拒绝", func(t *testing.T) {
		svc, store, _ := newTestIngest(&fakeParser{result: &ParsedMail{Text: "hi"}}, nil)
		expired := &domain.Inbox{
			Address:   "late@temp.mail",
			CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
			ExpiresAt: time.Now().UTC().Add(-time.Hour),
			AccessKey: "key_late",
		}
		require.NoError(t, store.CreateInbox(expired))

		err := svc.Ingest(&Envelope{To: "late@temp.mail", From: "s@e.com", Subject: "x", Raw: []byte("r")})
		assert.Error(t, err)
	})

	t.Run("邮件与统计记录成对写入", func(t *testing.T) {
		svc, store, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{Text: "hi"}}, nil)
		created, err := inboxes.Create("paired", "", "")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(&Envelope{To: created.Address, From: "s@e.com", Subject: "x", Raw: []byte("r")}))

		total, err := store.CountStats()
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

func TestIngestService_Forwarding(t *testing.T) {
	t.Run("设置了转发地址时先转发再落库", func(t *testing.T) {
		forwarder := &fakeForwarder{}
		svc, store, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{Text: "hi"}}, forwarder)
		created, err := inboxes.Create("relay", "", "")
		require.NoError(t, err)
		_, err = inboxes.SetForward(created.Address, "outside@example.com")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(&Envelope{To: created.Address, From: "s@e.com", Subject: "x", Raw: []byte("r")}))

		assert.Equal(t, 1, forwarder.calls)
		assert.Equal(t, "outside@example.com", forwarder.to)
		emails, _ := store.ListEmails(created.Address)
		assert.Len(t, emails, 1)
	})

	t.Run("转发失败不影响本地落库", func(t *testing.T) {
		forwarder := &fakeForwarder{err: errors.New("relay down")}
		svc, store, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{Text: "hi"}}, forwarder)
		created, err := inboxes.Create("besteffort", "", "")
		require.NoError(t, err)
		_, err = inboxes.SetForward(created.Address, "outside@example.com")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(&Envelope{To: created.Address, From: "s@e.com", Subject: "x", Raw: []byte("r")}))

		assert.Equal(t, 1, forwarder.calls)
		emails, _ := store.ListEmails(created.Address)
		assert.Len(t, emails, 1)
	})

	t.Run("未设置转发地址时不调用转发器", func(t *testing.T) {
		forwarder := &fakeForwarder{}
		svc, _, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{Text: "hi"}}, forwarder)
		created, err := inboxes.Create("noforward", "", "")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(&Envelope{To: created.Address, From: "s@e.com", Subject: "x", Raw: []byte("r")}))

		assert.Zero(t, forwarder.calls)
	})
}

func TestIngestService_Accept(t *testing.T) {
	svc, store, inboxes := newTestIngest(&fakeParser{result: &ParsedMail{}}, nil)

	created, err := inboxes.Create("gate", "", "")
	require.NoError(t, err)

	expired := &domain.Inbox{
		Address:   "old@temp.mail",
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
		AccessKey: "key_old",
	}
	require.NoError(t, store.CreateInbox(expired))

	t.Run("有效邮箱接受", func(t *testing.T) {
		assert.True(t, svc.Accept(created.Address))
	})

	t.Run("过期邮箱拒绝", func(t *testing.T) {
		assert.False(t, svc.Accept("old@temp.mail"))
	})

	t.Run("未知邮箱拒绝", func(t *testing.T) {
		assert.False(t, svc.Accept("unknown@temp.mail"))
	})
}
