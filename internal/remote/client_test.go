package remote

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"flashgh/internal/apperr"
	"flashgh/internal/tree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup returns a client pointed at a test server and the mux that serves it.
func setup(t *testing.T, token string) (*Client, *http.ServeMux) {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{Token: token, Timeout: 5 * time.Second})
	require.NoError(t, err)

	u, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	c.gh.BaseURL = u
	return c, mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

var testRepo = Repo{Owner: "octo", Name: "demo"}

func TestParseRepo(t *testing.T) {
	tests := []struct {
		in      string
		want    Repo
		wantErr bool
	}{
		{in: "octo/demo", want: Repo{"octo", "demo"}},
		{in: "  my-org/repo.name_2 ", want: Repo{"my-org", "repo.name_2"}},
		{in: "nodelimiter", wantErr: true},
		{in: "a/b/c", wantErr: true},
		{in: "/demo", wantErr: true},
		{in: "octo/", wantErr: true},
		{in: "octo/de mo", wantErr: true},
		{in: "octo/..", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepo(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.InvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Owner+"/"+tt.want.Name, got.String())
		})
	}
}

func TestBranch(t *testing.T) {
	assert.True(t, DefaultBranch().IsDefault())
	assert.True(t, BranchFromArg("  ").IsDefault())
	assert.Nil(t, DefaultBranch().ptr())

	b := BranchFromArg(" dev ")
	assert.False(t, b.IsDefault())
	assert.Equal(t, "dev", b.Name())
	require.NotNil(t, b.ptr())
	assert.Equal(t, "dev", *b.ptr())
	assert.Equal(t, NamedBranch("dev"), b)
}

func TestSearch(t *testing.T) {
	c, mux := setup(t, "")
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mcp language:go", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, map[string]any{
			"total_count": 3,
			"items": []map[string]any{
				{"full_name": "a/one", "name": "one", "stargazers_count": 1200, "html_url": "https://github.com/a/one"},
				{"full_name": "b/two", "name": "two", "private": true},
				{"full_name": "c/three", "name": "three"},
			},
		})
	})

	got, err := c.Search(context.Background(), "mcp language:go", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a/one", got[0].FullName)
	assert.Equal(t, 1200, got[0].Stars)
	assert.Equal(t, "public", got[0].Visibility)
	assert.Equal(t, "private", got[1].Visibility)
}

func TestSearchRejectsBadInput(t *testing.T) {
	c, _ := setup(t, "")

	_, err := c.Search(context.Background(), "  ", 10)
	assert.ErrorIs(t, err, apperr.InvalidInput)

	_, err = c.Search(context.Background(), "x", 0)
	assert.ErrorIs(t, err, apperr.InvalidInput)
}

func TestErrorClassification(t *testing.T) {
	reset := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)

	tests := []struct {
		name   string
		status int
		header map[string]string
		body   string
		want   apperr.Kind
	}{
		{name: "not found", status: 404, body: `{"message":"Not Found"}`, want: apperr.NotFound},
		{name: "unauthorized", status: 401, body: `{"message":"Bad credentials"}`, want: apperr.AuthError},
		{name: "forbidden", status: 403, body: `{"message":"Resource not accessible"}`, want: apperr.AuthError},
		{
			name:   "rate limited",
			status: 403,
			header: map[string]string{
				"X-RateLimit-Limit":     "60",
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     reset,
			},
			body: `{"message":"API rate limit exceeded for 1.2.3.4."}`,
			want: apperr.RateLimited,
		},
		{name: "server error", status: 502, body: `{"message":"Bad Gateway"}`, want: apperr.RemoteError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mux := setup(t, "ghp_test")
			mux.HandleFunc("/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Repository(context.Background(), testRepo)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.Contains(t, err.Error(), "octo/demo")
		})
	}
}

func TestTokenIsSent(t *testing.T) {
	c, mux := setup(t, "ghp_secret")
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ghp_secret", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"login": "octo"})
	})

	login, err := c.AuthenticatedLogin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octo", login)
}

func TestAuthenticatedLoginAnonymous(t *testing.T) {
	c, _ := setup(t, "")
	assert.True(t, c.Anonymous())

	_, err := c.AuthenticatedLogin(context.Background())
	assert.ErrorIs(t, err, apperr.AuthError)
}

func serveRepo(mux *http.ServeMux, defaultBranch string) {
	mux.HandleFunc("/repos/octo/demo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"full_name":      "octo/demo",
			"name":           "demo",
			"default_branch": defaultBranch,
			"owner":          map[string]any{"login": "octo"},
			"license":        map[string]any{"name": "MIT License"},
		})
	})
}

func TestRepository(t *testing.T) {
	c, mux := setup(t, "")
	serveRepo(mux, "trunk")

	info, err := c.Repository(context.Background(), testRepo)
	require.NoError(t, err)
	assert.Equal(t, "trunk", info.DefaultBranch)
	assert.Equal(t, "octo", info.Owner)
	assert.Equal(t, "MIT License", info.License)
}

func TestSnapshotUsesDefaultBranchTree(t *testing.T) {
	c, mux := setup(t, "")
	serveRepo(mux, "trunk")
	mux.HandleFunc("/repos/octo/demo/git/trees/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/demo/git/trees/trunk", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		writeJSON(w, http.StatusOK, map[string]any{
			"sha":       "t1",
			"truncated": false,
			"tree": []map[string]any{
				{"path": "README.md", "mode": "100644", "type": "blob", "sha": "s1", "size": 5},
				{"path": "src", "mode": "040000", "type": "tree", "sha": "t2"},
				{"path": "src/main.go", "mode": "100644", "type": "blob", "sha": "s2", "size": 42},
				{"path": "link", "mode": "120000", "type": "blob", "sha": "s3", "size": 9},
				{"path": "vendor/mod", "mode": "160000", "type": "commit", "sha": "c1"},
			},
		})
	})

	snap, err := c.Snapshot(context.Background(), testRepo, DefaultBranch())
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "src/main.go"}, snap.Paths())

	e, _ := snap.Get("src/main.go")
	assert.Equal(t, tree.Entry{Path: "src/main.go", Kind: tree.KindFile, Size: 42, Hash: "s2"}, e)
}

func TestSnapshotEmptyRepository(t *testing.T) {
	c, mux := setup(t, "")
	mux.HandleFunc("/repos/octo/demo/git/trees/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "Git Repository is empty."})
	})

	snap, err := c.Snapshot(context.Background(), testRepo, NamedBranch("main"))
	require.NoError(t, err)
	assert.Zero(t, snap.Len())
}

func TestSnapshotMissingBranch(t *testing.T) {
	c, mux := setup(t, "")
	mux.HandleFunc("/repos/octo/demo/git/trees/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})

	_, err := c.Snapshot(context.Background(), testRepo, NamedBranch("nope"))
	assert.ErrorIs(t, err, apperr.NotFound)
}

// serveContents serves a directory tree through the contents API.
func serveContents(t *testing.T, mux *http.ServeMux, dirs map[string][]map[string]any, files map[string]string) {
	mux.HandleFunc("/repos/octo/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(r.URL.Path, "/repos/octo/demo/contents/")
		if listing, ok := dirs[p]; ok {
			writeJSON(w, http.StatusOK, listing)
			return
		}
		if content, ok := files[p]; ok {
			writeJSON(w, http.StatusOK, map[string]any{
				"type": "file", "encoding": "base64", "path": p, "name": p[strings.LastIndex(p, "/")+1:],
				"size": len(content), "sha": "sha-" + p, "content": b64(content),
			})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})
}

func TestSnapshotTruncatedFallsBackToContents(t *testing.T) {
	c, mux := setup(t, "")
	mux.HandleFunc("/repos/octo/demo/git/trees/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sha": "t", "truncated": true, "tree": []any{}})
	})
	serveContents(t, mux, map[string][]map[string]any{
		"": {
			{"type": "file", "path": "a.txt", "name": "a.txt", "sha": "sa", "size": 1},
			{"type": "dir", "path": "d", "name": "d", "sha": "td"},
			{"type": "symlink", "path": "l", "name": "l", "sha": "sl"},
		},
		"d": {
			{"type": "file", "path": "d/b.txt", "name": "b.txt", "sha": "sb", "size": 2},
		},
	}, nil)

	snap, err := c.Snapshot(context.Background(), testRepo, NamedBranch("main"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "d/b.txt"}, snap.Paths())
	b, _ := snap.Get("d/b.txt")
	assert.Equal(t, "sb", b.Hash)
	assert.EqualValues(t, 2, b.Size)
}

func TestContentsAndRead(t *testing.T) {
	c, mux := setup(t, "")
	serveContents(t, mux, map[string][]map[string]any{
		"": {
			{"type": "dir", "path": "docs", "name": "docs"},
			{"type": "file", "path": "hello.txt", "name": "hello.txt", "sha": "s", "size": 6},
		},
	}, map[string]string{"hello.txt": "hello\n"})

	dir, err := c.Contents(context.Background(), testRepo, "", DefaultBranch())
	require.NoError(t, err)
	assert.True(t, dir.Dir)
	require.Len(t, dir.Items, 2)
	assert.True(t, dir.Items[0].IsDir())

	file, err := c.Contents(context.Background(), testRepo, "/hello.txt", DefaultBranch())
	require.NoError(t, err)
	assert.False(t, file.Dir)
	assert.Equal(t, "hello\n", string(file.Content))
	assert.EqualValues(t, 6, file.File.Size)

	data, err := c.Read(context.Background(), testRepo, "hello.txt", DefaultBranch())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	_, err = c.Read(context.Background(), testRepo, "", DefaultBranch())
	assert.ErrorIs(t, err, apperr.InvalidInput)

	_, err = c.Read(context.Background(), testRepo, "missing", DefaultBranch())
	assert.ErrorIs(t, err, apperr.NotFound)
}

func TestContentsSendsRef(t *testing.T) {
	c, mux := setup(t, "")
	mux.HandleFunc("/repos/octo/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dev", r.URL.Query().Get("ref"))
		writeJSON(w, http.StatusOK, []any{})
	})

	_, err := c.Contents(context.Background(), testRepo, "", NamedBranch("dev"))
	require.NoError(t, err)
}

func TestReadLargeFileFetchesBlob(t *testing.T) {
	c, mux := setup(t, "")
	mux.HandleFunc("/repos/octo/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"type": "file", "encoding": "none", "path": "big.bin", "name": "big.bin",
			"size": 2 << 20, "sha": "bigsha", "content": "",
		})
	})
	mux.HandleFunc("/repos/octo/demo/git/blobs/bigsha", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "raw bytes")
	})

	data, err := c.Read(context.Background(), testRepo, "big.bin", DefaultBranch())
	require.NoError(t, err)
	assert.Equal(t, "raw bytes", string(data))
}

func TestListRecursiveFiltersPrefix(t *testing.T) {
	c, mux := setup(t, "")
	mux.HandleFunc("/repos/octo/demo/git/trees/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"sha": "t",
			"tree": []map[string]any{
				{"path": "docs", "mode": "040000", "type": "tree"},
				{"path": "docs/a.md", "mode": "100644", "type": "blob", "sha": "s1", "size": 1},
				{"path": "docsx/b.md", "mode": "100644", "type": "blob", "sha": "s2", "size": 1},
			},
		})
	})

	got, err := c.List(context.Background(), testRepo, "docs", NamedBranch("main"), true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "docs/a.md", got[0].Path)

	all, err := c.List(context.Background(), testRepo, "", NamedBranch("main"), true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, tree.KindDirectory, all[0].Kind)

	_, err = c.List(context.Background(), testRepo, "nothing", NamedBranch("main"), true)
	assert.ErrorIs(t, err, apperr.NotFound)
}

type fileRequest struct {
	Message string  `json:"message"`
	Content string  `json:"content"`
	SHA     *string `json:"sha"`
	Branch  *string `json:"branch"`
}

func TestCreateAndUpdateFile(t *testing.T) {
	c, mux := setup(t, "ghp_test")

	var got []fileRequest
	mux.HandleFunc("/repos/octo/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var req fileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req)
		writeJSON(w, http.StatusCreated, map[string]any{"content": map[string]any{"sha": "newsha"}})
	})

	sha, err := c.CreateFile(context.Background(), testRepo, FileWrite{
		Path: "dir/new.txt", Content: []byte("hi"), Message: "msg", Branch: DefaultBranch(),
	})
	require.NoError(t, err)
	assert.Equal(t, "newsha", sha)

	_, err = c.UpdateFile(context.Background(), testRepo, FileWrite{
		Path: "dir/new.txt", Content: []byte("bye"), Message: "msg", Branch: NamedBranch("dev"), SHA: "old",
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "msg", got[0].Message)
	assert.Equal(t, b64("hi"), got[0].Content)
	assert.Nil(t, got[0].Branch, "default branch must not be sent")
	assert.Nil(t, got[0].SHA)

	require.NotNil(t, got[1].Branch)
	assert.Equal(t, "dev", *got[1].Branch)
	require.NotNil(t, got[1].SHA)
	assert.Equal(t, "old", *got[1].SHA)
}

func TestWriteValidation(t *testing.T) {
	c, _ := setup(t, "ghp_test")
	ctx := context.Background()

	_, err := c.UpdateFile(ctx, testRepo, FileWrite{Path: "a.txt", Message: "m"})
	assert.ErrorIs(t, err, apperr.InvalidInput)

	err = c.DeleteFile(ctx, testRepo, FileWrite{Path: "a.txt", Message: "m"})
	assert.ErrorIs(t, err, apperr.InvalidInput)

	_, err = c.CreateFile(ctx, testRepo, FileWrite{Path: "../x", Message: "m"})
	assert.ErrorIs(t, err, apperr.InvalidPath)
}

func TestWriteErrorsAreRemoteWriteErrors(t *testing.T) {
	c, mux := setup(t, "ghp_test")
	mux.HandleFunc("/repos/octo/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "sha does not match"})
	})

	_, err := c.CreateFile(context.Background(), testRepo, FileWrite{Path: "a.txt", Message: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.RemoteWriteError)
	assert.Contains(t, err.Error(), "octo/demo/a.txt")
}

func TestDeleteFile(t *testing.T) {
	c, mux := setup(t, "ghp_test")
	mux.HandleFunc("/repos/octo/demo/contents/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/repos/octo/demo/contents/old.txt", r.URL.Path)
		var req fileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SHA)
		assert.Equal(t, "s1", *req.SHA)
		writeJSON(w, http.StatusOK, map[string]any{"commit": map[string]any{"sha": "c"}})
	})

	err := c.DeleteFile(context.Background(), testRepo, FileWrite{Path: "old.txt", SHA: "s1", Message: "rm"})
	require.NoError(t, err)
}

func TestCreateRepository(t *testing.T) {
	tests := []struct {
		name     string
		opts     CreateOptions
		wantPath string
	}{
		{name: "user", opts: CreateOptions{Private: true}, wantPath: "/user/repos"},
		{name: "org", opts: CreateOptions{Org: true}, wantPath: "/orgs/octo/repos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mux := setup(t, "ghp_test")
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)
				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "demo", body["name"])
				assert.Equal(t, tt.opts.Private, body["private"])
				assert.Equal(t, false, body["auto_init"])
				writeJSON(w, http.StatusCreated, map[string]any{
					"full_name": "octo/demo", "name": "demo", "default_branch": "main", "private": tt.opts.Private,
				})
			}
			mux.HandleFunc("/user/repos", handler)
			mux.HandleFunc("/orgs/octo/repos", handler)

			info, err := c.CreateRepository(context.Background(), testRepo, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, "octo/demo", info.FullName)
		})
	}
}

func TestNewClientEnterprise(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "https://ghe.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com/api/v3/", c.gh.BaseURL.String())
	assert.Equal(t, "https://ghe.example.com/api/uploads/", c.gh.UploadURL.String())
}
