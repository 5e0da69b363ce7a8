package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			name      string
			data      []byte
			savedName string
			err       error
		)

		BeforeEach(func() {
			name = "group_0_revolut.jpg"
			data = []byte("receipt bytes")
		})

		JustBeforeEach(func() {
			savedName, err = storage.Save(name, data)
		})

		When("the name is a plain file name", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the stored name", func() {
				Expect(savedName).To(Equal(name))
			})

			It("should write the file into the archive directory", func() {
				Expect(filepath.Join(tmpDir, name)).To(BeAnExistingFile())
			})
		})

		When("the name escapes the archive directory", func() {
			BeforeEach(func() {
				name = "../outside.jpg"
			})

			It("should reject it", func() {
				Expect(err).To(MatchError(ErrInvalidName))
				Expect(filepath.Join(filepath.Dir(tmpDir), "outside.jpg")).NotTo(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		var (
			name string
			data []byte
			err  error
		)

		JustBeforeEach(func() {
			data, err = storage.Get(name)
		})

		When("the upload exists", func() {
			BeforeEach(func() {
				name = "group_0_abn.png"
				_, saveErr := storage.Save(name, []byte("png bytes"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should return its data", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("png bytes"))
			})
		})

		When("the upload does not exist", func() {
			BeforeEach(func() {
				name = "missing.jpg"
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("reading file")))
			})
		})

		When("the name is empty", func() {
			BeforeEach(func() {
				name = ""
			})

			It("should reject it", func() {
				Expect(err).To(MatchError(ErrInvalidName))
			})
		})
	})

	Describe("Delete", func() {
		var (
			name string
			err  error
		)

		JustBeforeEach(func() {
			err = storage.Delete(name)
		})

		When("the upload exists", func() {
			BeforeEach(func() {
				name = "group_1_receipt.jpg"
				_, saveErr := storage.Save(name, []byte("data"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should remove it from disk", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(filepath.Join(tmpDir, name)).NotTo(BeAnExistingFile())
			})

			It("should make it inaccessible via Get", func() {
				_, getErr := storage.Get(name)
				Expect(getErr).To(HaveOccurred())
			})
		})

		When("the upload does not exist", func() {
			BeforeEach(func() {
				name = "missing.jpg"
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("deleting file")))
			})
		})
	})

	Describe("List", func() {
		var (
			names []string
			err   error
		)

		JustBeforeEach(func() {
			names, err = storage.List()
		})

		When("the archive is empty", func() {
			It("should return no names", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(names).To(BeEmpty())
			})
		})

		When("uploads and a subdirectory exist", func() {
			BeforeEach(func() {
				for _, n := range []string{"b_0_two.jpg", "a_0_one.jpg"} {
					_, saveErr := storage.Save(n, []byte("x"))
					Expect(saveErr).NotTo(HaveOccurred())
				}
				Expect(os.Mkdir(filepath.Join(tmpDir, "nested"), 0755)).To(Succeed())
			})

			It("should list only files in lexical order", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(names).To(Equal([]string{"a_0_one.jpg", "b_0_two.jpg"}))
			})
		})
	})

	Describe("NewLocalStorage", func() {
		var (
			storagePath string
			created     *LocalStorage
			err         error
		)

		JustBeforeEach(func() {
			created, err = NewLocalStorage(storagePath)
		})

		When("the directory does not exist", func() {
			BeforeEach(func() {
				storagePath = filepath.Join(GinkgoT().TempDir(), "uploads")
			})

			It("should create it", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(storagePath).To(BeADirectory())
			})

			It("should allow saving uploads", func() {
				_, saveErr := created.Save("receipt.jpg", []byte("data"))
				Expect(saveErr).NotTo(HaveOccurred())
			})
		})

		When("the path is a regular file", func() {
			BeforeEach(func() {
				storagePath = filepath.Join(GinkgoT().TempDir(), "file")
				Expect(os.WriteFile(storagePath, []byte("x"), 0644)).To(Succeed())
			})

			It("should return an error", func() {
				Expect(err).To(MatchError(ContainSubstring("creating storage directory")))
			})
		})
	})
})
