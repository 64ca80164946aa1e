package loader_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmemsim/loader"
)

var _ = Describe("Trace", func() {
	Describe("Parse", func() {
		It("should parse every record kind", func() {
			input := `# header
0 L 0x1000
1 S 2000

2 I 0xDEAD
3 B 0x400 T
0 b 404 n
`
			records, err := loader.Parse(strings.NewReader(input))
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(Equal([]loader.Record{
				{ThreadID: 0, Kind: loader.KindLoad, Addr: 0x1000},
				{ThreadID: 1, Kind: loader.KindStore, Addr: 0x2000},
				{ThreadID: 2, Kind: loader.KindFetch, Addr: 0xDEAD},
				{ThreadID: 3, Kind: loader.KindBranch, Addr: 0x400, Taken: true},
				{ThreadID: 0, Kind: loader.KindBranch, Addr: 0x404},
			}))
		})

		It("should return an empty slice for an empty trace", func() {
			records, err := loader.Parse(strings.NewReader("\n# nothing\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})

		DescribeTable("should reject malformed records",
			func(line, msg string) {
				_, err := loader.Parse(strings.NewReader("0 L 0x10\n" + line + "\n"))
				Expect(err).To(MatchError(ContainSubstring("line 2")))
				Expect(err).To(MatchError(ContainSubstring(msg)))
			},
			Entry("too few fields", "0 L", "fields"),
			Entry("bad thread", "x L 0x10", "thread id"),
			Entry("negative thread", "-1 L 0x10", "thread id"),
			Entry("bad kind", "0 Q 0x10", "kind"),
			Entry("bad address", "0 L 0xZZ", "address"),
			Entry("branch without outcome", "0 B 0x10", "outcome"),
			Entry("bad outcome", "0 B 0x10 X", "outcome"),
			Entry("outcome on a load", "0 L 0x10 T", "unexpected outcome"),
		)
	})

	Describe("Reader", func() {
		It("should stream records and end with io.EOF", func() {
			r := loader.NewReader(strings.NewReader("0 L 10\n1 L 20\n"))

			rec, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Addr).To(Equal(uint64(0x10)))

			rec, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ThreadID).To(Equal(1))

			_, err = r.Next()
			Expect(err).To(Equal(io.EOF))
		})
	})

	Describe("Load", func() {
		It("should read a trace file", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "trace.txt")
			Expect(os.WriteFile(path, []byte("0 L 0x1000\n0 B 0x40 T\n"), 0644)).
				To(Succeed())

			records, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})

		It("should fail on a missing file", func() {
			_, err := loader.Load("/nonexistent/trace.txt")
			Expect(err).To(MatchError(ContainSubstring("failed to open trace file")))
		})
	})

	Describe("Record", func() {
		It("should format like the trace syntax", func() {
			Expect(loader.Record{ThreadID: 1, Kind: loader.KindLoad, Addr: 0x10}.String()).
				To(Equal("1 L 0x10"))
			Expect(loader.Record{Kind: loader.KindBranch, Addr: 0x40, Taken: true}.String()).
				To(Equal("0 B 0x40 T"))
		})

		It("should know which kinds need translation", func() {
			Expect(loader.KindLoad.IsMemory()).To(BeTrue())
			Expect(loader.KindFetch.IsMemory()).To(BeTrue())
			Expect(loader.KindBranch.IsMemory()).To(BeFalse())
		})
	})
})
