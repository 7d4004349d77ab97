// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package serialized

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ClassID is the engine class id of an object.
type ClassID int32

// Known class ids.
const (
	ClassUnknown                    ClassID = 0
	ClassGameObject                 ClassID = 1
	ClassTransform                  ClassID = 4
	ClassMaterial                   ClassID = 21
	ClassMeshRenderer               ClassID = 23
	ClassTexture                    ClassID = 27
	ClassTexture2D                  ClassID = 28
	ClassMeshFilter                 ClassID = 33
	ClassMesh                       ClassID = 43
	ClassShader                     ClassID = 48
	ClassTextAsset                  ClassID = 49
	ClassAnimationClip              ClassID = 74
	ClassAudioClip                  ClassID = 83
	ClassAvatar                     ClassID = 90
	ClassAnimatorController         ClassID = 91
	ClassAnimator                   ClassID = 95
	ClassAnimation                  ClassID = 111
	ClassMonoBehaviour              ClassID = 114
	ClassMonoScript                 ClassID = 115
	ClassFont                       ClassID = 128
	ClassPlayerSettings             ClassID = 129
	ClassSkinnedMeshRenderer        ClassID = 137
	ClassAssetBundle                ClassID = 142
	ClassResourceManager            ClassID = 147
	ClassMovieTexture               ClassID = 152
	ClassSprite                     ClassID = 213
	ClassAnimatorOverrideController ClassID = 221
	ClassRectTransform              ClassID = 224
	ClassVideoClip                  ClassID = 329
	ClassIndexObject                ClassID = 1127
	ClassMiHoYoBinData              ClassID = 1128
	ClassSpriteAtlas                ClassID = 687078895
)

var classLabels = map[ClassID]string{
	ClassGameObject:                 "GameObject",
	ClassTransform:                  "Transform",
	ClassMaterial:                   "Material",
	ClassMeshRenderer:               "MeshRenderer",
	ClassTexture:                    "Texture",
	ClassTexture2D:                  "Texture2D",
	ClassMeshFilter:                 "MeshFilter",
	ClassMesh:                       "Mesh",
	ClassShader:                     "Shader",
	ClassTextAsset:                  "TextAsset",
	ClassAnimationClip:              "AnimationClip",
	ClassAudioClip:                  "AudioClip",
	ClassAvatar:                     "Avatar",
	ClassAnimatorController:         "AnimatorController",
	ClassAnimator:                   "Animator",
	ClassAnimation:                  "Animation",
	ClassMonoBehaviour:              "MonoBehaviour",
	ClassMonoScript:                 "MonoScript",
	ClassFont:                       "Font",
	ClassPlayerSettings:             "PlayerSettings",
	ClassSkinnedMeshRenderer:        "SkinnedMeshRenderer",
	ClassAssetBundle:                "AssetBundle",
	ClassResourceManager:            "ResourceManager",
	ClassMovieTexture:               "MovieTexture",
	ClassSprite:                     "Sprite",
	ClassAnimatorOverrideController: "AnimatorOverrideController",
	ClassRectTransform:              "RectTransform",
	ClassVideoClip:                  "VideoClip",
	ClassIndexObject:                "IndexObject",
	ClassMiHoYoBinData:              "MiHoYoBinData",
	ClassSpriteAtlas:                "SpriteAtlas",
}

var classByLabel = func() map[string]ClassID {
	out := make(map[string]ClassID, len(classLabels))
	for id, label := range classLabels {
		out[strings.ToLower(label)] = id
	}

	return out
}()

// Known reports whether the id has a label.
func (c ClassID) Known() bool {
	_, ok := classLabels[c]
	return ok
}

// String returns the class label, or the decimal id for unknown classes.
func (c ClassID) String() string {
	if label, ok := classLabels[c]; ok {
		return label
	}

	return strconv.FormatInt(int64(c), 10)
}

// MarshalText encodes the class label.
func (c ClassID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a class label or decimal id.
func (c *ClassID) UnmarshalText(text []byte) error {
	value := strings.TrimSpace(string(text))
	if id, ok := classByLabel[strings.ToLower(value)]; ok {
		*c = id
		return nil
	}

	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return fmt.Errorf("unknown class %q", value)
	}

	*c = ClassID(n)
	return nil
}

// ParseClassID decodes a class label or decimal id.
func ParseClassID(value string) (ClassID, error) {
	var c ClassID
	err := c.UnmarshalText([]byte(value))
	return c, err
}

// KnownClasses returns every labelled class id in ascending order.
func KnownClasses() []ClassID {
	out := make([]ClassID, 0, len(classLabels))
	for id := range classLabels {
		out = append(out, id)
	}

	slices.Sort(out)
	return out
}
