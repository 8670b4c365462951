package importer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"path/filepath"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/gltfscene/internal/host"
)

// imageIndexProp tags packed host images with their glTF image index.
const imageIndexProp = "gltf_index"

// ImagePath reports whether image idx is a file on disk and, if so, its
// path and display name. Embedded images are not files. ok is false when
// no file is available.
func (s *Session) ImagePath(idx int) (path, name string, ok bool) {
	if idx < 0 || idx >= len(s.doc.Images) {
		return "", "", false
	}
	img := &s.doc.Images[idx]
	if img.URI == "" || img.IsDataURI() {
		return "", "", false
	}

	rel, err := url.PathUnescape(img.URI)
	if err != nil {
		s.log.Error("bad image URI", zap.Int("image", idx), zap.String("uri", img.URI), zap.Error(err))
		return "", "", false
	}
	path, err = s.files.Resolve(rel)
	if err != nil {
		s.log.Error("missing image file", zap.Int("image", idx), zap.String("uri", rel), zap.Error(err))
		return "", "", false
	}
	return path, filepath.Base(path), true
}

// CreateImage materializes image idx once. Linked images are shared by
// file path; packed images are shared by their glTF index.
func (s *Session) CreateImage(idx int) {
	if idx < 0 || idx >= len(s.images) {
		s.log.Error("image index out of range", zap.Int("image", idx))
		return
	}
	st := &s.images[idx]
	if st.image != nil {
		return
	}

	if !s.opts.PackImages {
		if path, name, ok := s.ImagePath(idx); ok {
			if existing := s.data.ImageByFilepath(path); existing != nil {
				st.image = existing
				return
			}
			img := s.data.NewImage(name)
			img.Filepath = path
			img.MimeType = s.doc.Images[idx].MimeType
			if data, _, err := s.files.Load(path); err == nil {
				s.readImageSize(idx, img, bytes.NewReader(data))
			} else {
				s.log.Warn("read linked image", zap.Int("image", idx), zap.Error(err))
			}
			st.image = img
			s.log.Info("load image", zap.Int("image", idx), zap.String("path", path))
			return
		}
	}

	if existing := s.data.ImageByProp(imageIndexProp, idx); existing != nil {
		st.image = existing
		return
	}
	data, mime, err := s.src.ImageData(idx)
	if err != nil {
		s.log.Error("read image data", zap.Int("image", idx), zap.Error(err))
		return
	}
	name := s.doc.Images[idx].Name
	if name == "" {
		name = fmt.Sprintf("Image_%d", idx)
	}
	img := s.data.NewImage(name)
	img.Packed = data
	img.MimeType = mime
	img.Props[imageIndexProp] = idx
	s.readImageSize(idx, img, bytes.NewReader(data))
	st.image = img
	s.log.Info("pack image", zap.Int("image", idx), zap.Int("bytes", len(data)))
}

// readImageSize fills in the image dimensions from its header. Unknown
// formats only cost a warning.
func (s *Session) readImageSize(idx int, img *host.Image, r io.Reader) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		s.log.Warn("unreadable image header", zap.Int("image", idx), zap.Error(err))
		return
	}
	img.Width, img.Height = cfg.Width, cfg.Height
	if img.MimeType == "" {
		img.MimeType = "image/" + format
	}
}
