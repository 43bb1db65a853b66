package pose

import "github.com/pkg/errors"

//ErrMalformedRecord is returned for keypoint arrays or skeletons that do not fit the 12 joint layout.
var ErrMalformedRecord = errors.New("malformed keypoint record")
