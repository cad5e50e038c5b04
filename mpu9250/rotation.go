package mpu9250

import (
	"math"

	"github.com/pkg/errors"
	matrix "github.com/skelterjohn/go.matrix"
	"github.com/westphae/quaternion"
)

// Vec3 is an x, y, z triple in physical units.
type Vec3 [3]float64

// Mat3 is a row-major 3×3 matrix. Rotations map sensor axes to body axes.
type Mat3 [3][3]float64

// Identity is the default rotation.
var Identity = Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Apply returns m·v.
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Dense returns m as a go.matrix DenseMatrix.
func (m Mat3) Dense() *matrix.DenseMatrix {
	return matrix.MakeDenseMatrix([]float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	}, 3, 3)
}

// Mat3FromDense copies a 3×3 go.matrix matrix.
func Mat3FromDense(d matrix.MatrixRO) (Mat3, error) {
	var m Mat3
	if d.Rows() != 3 || d.Cols() != 3 {
		return m, errors.Wrapf(ErrInvalidSetting, "MPU9250 Error: rotation must be 3x3, got %dx%d", d.Rows(), d.Cols())
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.Get(i, j)
		}
	}
	return m, nil
}

// IsRotation reports whether m is orthonormal with determinant +1, within tol.
func IsRotation(m Mat3, tol float64) bool {
	d := m.Dense()
	p, err := d.TimesDense(d.Transpose())
	if err != nil {
		return false
	}
	if !matrix.ApproxEquals(p, matrix.Eye(3), tol) {
		return false
	}
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	return math.Abs(det-1) <= tol
}

// RotationFromQuaternion returns the matrix that rotates vectors by q,
// i.e. R·v equals q·v·q*. q need not be normalized.
func RotationFromQuaternion(q quaternion.Quaternion) Mat3 {
	return Mat3(q.RotMat())
}

// RotationFromEuler builds the mounting rotation from roll (phi), pitch
// (theta) and yaw (psi), in radians.
func RotationFromEuler(phi, theta, psi float64) Mat3 {
	return RotationFromQuaternion(quaternion.FromEuler(phi, theta, psi))
}
