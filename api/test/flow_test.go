package test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/lexvault/api/weberr"
	"github.com/irsalhamdi/lexvault/core/book"
	"github.com/irsalhamdi/lexvault/core/cart"
	"github.com/irsalhamdi/lexvault/core/casefile"
	"github.com/irsalhamdi/lexvault/core/catalog"
	"github.com/irsalhamdi/lexvault/core/checkout"
	"github.com/irsalhamdi/lexvault/core/purchase"
	"github.com/irsalhamdi/lexvault/core/user"
	"github.com/irsalhamdi/lexvault/validate"
)

type flowTest struct {
	*TestEnv
	now time.Time
}

func (ft *flowTest) caseFile(t *testing.T, title, court string, price int, premium, published bool) casefile.CaseFile {
	t.Helper()

	ft.now = ft.now.Add(time.Minute)
	cf := casefile.CaseFile{
		ID:          validate.GenerateID(),
		Title:       title,
		CaseNumber:  "CA-" + title,
		Court:       court,
		Year:        1978,
		Category:    "constitutional",
		DocumentURL: "https://files.example.com/" + title + ".pdf",
		Price:       price,
		IsPremium:   premium,
		IsPublished: published,
		CreatedAt:   ft.now,
		UpdatedAt:   ft.now,
	}
	if err := casefile.Create(context.Background(), ft.DB, cf); err != nil {
		t.Fatal(err)
	}
	return cf
}

func (ft *flowTest) book(t *testing.T, title string, price int) book.Book {
	t.Helper()

	ft.now = ft.now.Add(time.Minute)
	b := book.Book{
		ID:          validate.GenerateID(),
		Title:       title,
		Author:      "H. M. Seervai",
		Category:    "constitutional",
		ContentURL:  "https://files.example.com/" + title + ".epub",
		Price:       price,
		IsPremium:   price > 0,
		IsPublished: true,
		CreatedAt:   ft.now,
		UpdatedAt:   ft.now,
	}
	if err := book.Create(context.Background(), ft.DB, b); err != nil {
		t.Fatal(err)
	}
	return b
}

func (ft *flowTest) signup(t *testing.T, cl *http.Client, email string) user.User {
	t.Helper()

	su := user.UserSignup{Name: "Reader", Email: email, Password: "correct horse", PasswordConfirm: "correct horse"}
	var usr user.User
	if code := ft.Do(t, cl, http.MethodPost, "/auth/signup", su, &usr); code != http.StatusCreated {
		t.Fatalf("signup: status %d", code)
	}
	return usr
}

func (ft *flowTest) addToCart(t *testing.T, cl *http.Client, id string, kind catalog.Kind, want int) {
	t.Helper()

	in := cart.ItemNew{ID: id, Kind: string(kind)}
	if code := ft.Do(t, cl, http.MethodPut, "/cart/items", in, nil); code != want {
		t.Fatalf("adding %s to cart: expected status %d, got %d", id, want, code)
	}
}

func (ft *flowTest) cart(t *testing.T, cl *http.Client) []string {
	t.Helper()

	var snap cart.Snapshot
	if code := ft.Do(t, cl, http.MethodGet, "/cart", nil, &snap); code != http.StatusOK {
		t.Fatalf("showing cart: status %d", code)
	}
	ids := []string{}
	for _, e := range snap.Entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestFlow(t *testing.T) {
	env := NewTestEnv(t, "flow_test")
	ft := &flowTest{TestEnv: env, now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	free := ft.caseFile(t, "kesavananda", "Supreme Court", 0, false, true)
	maneka := ft.caseFile(t, "maneka", "Supreme Court", 150, true, true)
	puttaswamy := ft.caseFile(t, "puttaswamy", "Supreme Court", 250, true, true)
	_ = ft.caseFile(t, "bombay-draft", "Bombay High Court", 90, true, false)
	_ = ft.caseFile(t, "vishaka", "Delhi High Court", 90, true, true)
	treatise := ft.book(t, "constitutional-law-of-india", 900)

	t.Run("list", func(t *testing.T) { ft.testList(t) })
	t.Run("gate", func(t *testing.T) { ft.testGate(t, free, maneka, treatise) })
	t.Run("partial", func(t *testing.T) { ft.testPartialCheckout(t, maneka, puttaswamy, treatise) })
	t.Run("anonymous", func(t *testing.T) { ft.testAnonymousCheckout(t, puttaswamy) })
}

func (ft *flowTest) testList(t *testing.T) {
	cl := ft.NewClient(t)

	var resp struct {
		CaseFiles  []casefile.CaseFile `json:"caseFiles"`
		Pagination catalog.Pagination  `json:"pagination"`
	}
	if code := ft.Do(t, cl, http.MethodGet, "/case-files?limit=2", nil, &resp); code != http.StatusOK {
		t.Fatalf("listing case files: status %d", code)
	}

	want := catalog.Pagination{Page: 1, Limit: 2, Total: 4, TotalPages: 2}
	if diff := cmp.Diff(want, resp.Pagination); diff != "" {
		t.Fatalf("pagination mismatch (-want +got):\n%s", diff)
	}
	if len(resp.CaseFiles) != 2 || resp.CaseFiles[0].Title != "vishaka" {
		t.Fatalf("expected newest first, got %+v", resp.CaseFiles)
	}

	resp.CaseFiles = nil
	if code := ft.Do(t, cl, http.MethodGet, "/case-files?court=Supreme+Court&isPremium=true", nil, &resp); code != http.StatusOK {
		t.Fatalf("filtering case files: status %d", code)
	}
	if resp.Pagination.Total != 2 {
		t.Fatalf("expected 2 premium supreme court files, got %d", resp.Pagination.Total)
	}

	if code := ft.Do(t, cl, http.MethodGet, "/case-files?limit=101", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected limit above 100 to be rejected, got %d", code)
	}
}

func (ft *flowTest) testGate(t *testing.T, free, premium casefile.CaseFile, treatise book.Book) {
	cl := ft.NewClient(t)
	contentPath := "/case-files/" + premium.ID + "/content"

	if code := ft.Do(t, cl, http.MethodGet, "/case-files/"+free.ID+"/content", nil, nil); code != http.StatusOK {
		t.Fatalf("free content: status %d", code)
	}

	var er weberr.ErrorResponse
	if code := ft.Do(t, cl, http.MethodGet, contentPath, nil, &er); code != http.StatusUnauthorized {
		t.Fatalf("anonymous premium content: status %d", code)
	}
	if er.Redirect != "/login?next="+url.QueryEscape(contentPath) {
		t.Fatalf("unexpected login redirect %q", er.Redirect)
	}

	ft.signup(t, cl, "gate@example.com")

	er = weberr.ErrorResponse{}
	if code := ft.Do(t, cl, http.MethodGet, contentPath, nil, &er); code != http.StatusForbidden {
		t.Fatalf("unpurchased premium content: status %d", code)
	}
	if er.Redirect != "/case-files/"+premium.ID+"/purchase" {
		t.Fatalf("unexpected purchase redirect %q", er.Redirect)
	}

	ft.addToCart(t, cl, free.ID, catalog.KindCaseFile, http.StatusConflict)
	ft.addToCart(t, cl, premium.ID, catalog.KindCaseFile, http.StatusCreated)
	ft.addToCart(t, cl, premium.ID, catalog.KindCaseFile, http.StatusOK)

	var res checkout.Result
	if code := ft.Do(t, cl, http.MethodPost, "/checkout", nil, &res); code != http.StatusOK {
		t.Fatalf("checkout: status %d", code)
	}
	if res.Status != checkout.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if ids := ft.cart(t, cl); len(ids) != 0 {
		t.Fatalf("cart not cleared: %v", ids)
	}

	var content casefile.Content
	if code := ft.Do(t, cl, http.MethodGet, contentPath, nil, &content); code != http.StatusOK {
		t.Fatalf("purchased content: status %d", code)
	}
	if content.DocumentURL != premium.DocumentURL {
		t.Fatalf("unexpected document url %q", content.DocumentURL)
	}

	// owned items cannot be added again
	ft.addToCart(t, cl, premium.ID, catalog.KindCaseFile, http.StatusConflict)

	if code := ft.Do(t, cl, http.MethodGet, "/books/"+treatise.ID+"/content", nil, nil); code != http.StatusForbidden {
		t.Fatalf("unpurchased book content: status %d", code)
	}

	var owned struct {
		Purchases []purchase.Record `json:"purchases"`
	}
	if code := ft.Do(t, cl, http.MethodGet, "/purchases", nil, &owned); code != http.StatusOK {
		t.Fatalf("listing purchases: status %d", code)
	}
	if len(owned.Purchases) != 1 || owned.Purchases[0].ItemID != premium.ID {
		t.Fatalf("unexpected purchases %+v", owned.Purchases)
	}
}

func (ft *flowTest) testPartialCheckout(t *testing.T, a, b casefile.CaseFile, treatise book.Book) {
	cl := ft.NewClient(t)
	ft.signup(t, cl, "partial@example.com")

	ft.addToCart(t, cl, a.ID, catalog.KindCaseFile, http.StatusCreated)
	ft.addToCart(t, cl, b.ID, catalog.KindCaseFile, http.StatusCreated)
	ft.addToCart(t, cl, treatise.ID, catalog.KindBook, http.StatusCreated)

	ft.Payments.setDeclined(b.ID, true)

	var res checkout.Result
	if code := ft.Do(t, cl, http.MethodPost, "/checkout", nil, &res); code != http.StatusMultiStatus {
		t.Fatalf("partial checkout: status %d", code)
	}
	if diff := cmp.Diff([]string{b.ID}, res.FailedIDs()); diff != "" {
		t.Fatalf("failed ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{b.ID}, ft.cart(t, cl)); diff != "" {
		t.Fatalf("cart should keep only the declined item (-want +got):\n%s", diff)
	}

	ft.Payments.setDeclined(b.ID, false)

	res = checkout.Result{}
	if code := ft.Do(t, cl, http.MethodPost, "/checkout", nil, &res); code != http.StatusOK {
		t.Fatalf("retried checkout: status %d", code)
	}

	var owned struct {
		Purchases []purchase.Record `json:"purchases"`
	}
	ft.Do(t, cl, http.MethodGet, "/purchases", nil, &owned)
	if len(owned.Purchases) != 3 {
		t.Fatalf("expected 3 purchases, got %+v", owned.Purchases)
	}

	var er weberr.ErrorResponse
	if code := ft.Do(t, cl, http.MethodPost, "/checkout", nil, &er); code != http.StatusUnprocessableEntity {
		t.Fatalf("empty checkout: status %d", code)
	}
}

func (ft *flowTest) testAnonymousCheckout(t *testing.T, cf casefile.CaseFile) {
	cl := ft.NewClient(t)

	ft.addToCart(t, cl, cf.ID, catalog.KindCaseFile, http.StatusCreated)

	var er weberr.ErrorResponse
	if code := ft.Do(t, cl, http.MethodPost, "/checkout", nil, &er); code != http.StatusUnauthorized {
		t.Fatalf("anonymous checkout: status %d", code)
	}
	if diff := cmp.Diff([]string{cf.ID}, ft.cart(t, cl)); diff != "" {
		t.Fatalf("cart changed on anonymous checkout (-want +got):\n%s", diff)
	}

	// signing in keeps the cart the visitor built
	ft.signup(t, cl, "anon@example.com")

	var res checkout.Result
	if code := ft.Do(t, cl, http.MethodPost, "/checkout", nil, &res); code != http.StatusOK {
		t.Fatalf("checkout after signup: status %d", code)
	}
}
