package util

import (
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/pkg/errors"
)

// ParseImage parses the reference to a docker image.
//
// Short names like "ubuntu" are allowed and resolve against docker hub, which is what the kubelet does with
// the image field of a container.
func ParseImage(image string) (name.Reference, error) {
	if image == "" {
		return nil, errors.New("image can't be empty")
	}
	ref, err := name.ParseReference(image, name.WeakValidation)
	if err != nil {
		return nil, errors.Wrapf(err, "Image %v isn't a valid image reference", image)
	}
	return ref, nil
}
