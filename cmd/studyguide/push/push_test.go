package pushcmder

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/server"
)

var _ = Describe("Push Command", func() {
	var (
		ctx       context.Context
		localPath string
		out       *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		localPath = filepath.Join(GinkgoT().TempDir(), "local.db")
		out = &bytes.Buffer{}
	})

	seed := func(texts ...string) {
		local, err := merkle.NewSQLiteStorer(localPath)
		Expect(err).NotTo(HaveOccurred())
		defer local.Close()
		for _, text := range texts {
			_, err := merkle.Record(ctx, local,
				merkle.Bucket{Source: merkle.SourceText, Text: text},
				"test-model",
				&guide.StudyGuide{KeyConcepts: []string{text}},
			)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	startServer := func() (string, *merkle.MemoryStorer, func()) {
		remote := merkle.NewMemoryStorer()

		srv, err := server.New(server.Config{ListenAddr: ":0"}, nil, nil, remote, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		go func() {
			_ = srv.RunWithListener(listener)
		}()

		addr := "http://" + listener.Addr().String()
		cleanup := func() {
			_ = srv.Shutdown()
		}
		return addr, remote, cleanup
	}

	execute := func(args ...string) error {
		root := &cobra.Command{Use: "studyguide", SilenceUsage: true, SilenceErrors: true}
		cmdutil.AddPersistentFlags(root)
		root.AddCommand(NewPushCmd())
		root.SetOut(out)
		root.SetArgs(append([]string{"push", "--db", localPath}, args...))
		return root.Execute()
	}

	It("pushes local history to a remote server", func() {
		seed("first lecture", "second lecture")
		addr, remote, cleanup := startServer()
		defer cleanup()

		Expect(execute("--batch-size", "1", addr)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Pushed 4 new nodes (0 already existed, 0 errors)"))

		entries, err := merkle.Guides(ctx, remote)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
	})

	It("skips nodes the remote already has", func() {
		seed("only lecture")
		addr, _, cleanup := startServer()
		defer cleanup()

		Expect(execute(addr + "/")).To(Succeed())
		out.Reset()
		Expect(execute(addr)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Pushed 0 new nodes (2 already existed, 0 errors)"))
	})

	It("reports an empty local history", func() {
		Expect(execute("http://127.0.0.1:1")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No local history to push."))
	})

	It("fails on server errors", func() {
		seed("lecture")
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer ts.Close()

		err := execute(ts.URL)
		Expect(err).To(MatchError(ContainSubstring("server returned 500")))
	})

	Describe("orderRootsFirst", func() {
		It("puts notes nodes before guides", func() {
			notes := merkle.NewNode(merkle.Bucket{Type: merkle.TypeNotes, Text: "n"}, nil)
			g := merkle.NewNode(merkle.Bucket{Type: merkle.TypeGuide, Model: "m"}, notes)
			nodes := []*merkle.Node{g, notes}

			orderRootsFirst(nodes)
			Expect(nodes).To(Equal([]*merkle.Node{notes, g}))
		})
	})
})
