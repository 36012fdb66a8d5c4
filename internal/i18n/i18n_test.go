package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateKorean(t *testing.T) {
	ctx := initLang(t, "ko")

	got := T(ctx, "AppTitle")
	if got != "매스뱅크" {
		t.Errorf("T(AppTitle) = %q, want '매스뱅크'", got)
	}

	got = T(ctx, "NoMatchingProblems")
	if got != "요청한 난이도 분포를 채울 문제가 없습니다." {
		t.Errorf("T(NoMatchingProblems) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "MathBank" {
		t.Errorf("T(AppTitle) = %q, want 'MathBank'", got)
	}

	got = T(ctx, "TypeNotFound")
	if got != "No such type code." {
		t.Errorf("T(TypeNotFound) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "ProblemsSelected", 1)
	if got1 != "1 problem selected." {
		t.Errorf("Tp(ProblemsSelected, 1) = %q, want '1 problem selected.'", got1)
	}

	got5 := Tp(ctx, "ProblemsSelected", 5)
	if got5 != "5 problems selected." {
		t.Errorf("Tp(ProblemsSelected, 5) = %q, want '5 problems selected.'", got5)
	}
}

func TestKoreanPluralHasSingleForm(t *testing.T) {
	ctx := initLang(t, "ko")

	if got := Tp(ctx, "ProblemsSelected", 4); got != "4개 문제가 선택되었습니다." {
		t.Errorf("Tp(ProblemsSelected, 4) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "ko")

	got := Td(ctx, "ExamN", map[string]any{"ID": 42})
	if got != "시험지 #42" {
		t.Errorf("Td(ExamN, ID=42) = %q, want '시험지 #42'", got)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	if err := Init("ko"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("ko")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "AppTitle")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "MathBank" {
		t.Errorf("Accept-Language en: T(AppTitle) = %q, want 'MathBank'", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "매스뱅크" {
		t.Errorf("no header: T(AppTitle) = %q, want '매스뱅크'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "ko")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
