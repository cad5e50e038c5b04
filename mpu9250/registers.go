package mpu9250

// MPU-9250 register map, from RM-MPU-9250A-00 v1.6.
const (
	MPUREG_SMPLRT_DIV       = 0x19
	MPUREG_CONFIG           = 0x1A
	MPUREG_GYRO_CONFIG      = 0x1B
	MPUREG_ACCEL_CONFIG     = 0x1C
	MPUREG_ACCEL_CONFIG_2   = 0x1D
	MPUREG_I2C_MST_CTRL     = 0x24
	MPUREG_I2C_SLV0_ADDR    = 0x25
	MPUREG_I2C_SLV0_REG     = 0x26
	MPUREG_I2C_SLV0_CTRL    = 0x27
	MPUREG_I2C_MST_STATUS   = 0x36
	MPUREG_INT_PIN_CFG      = 0x37
	MPUREG_INT_ENABLE       = 0x38
	MPUREG_INT_STATUS       = 0x3A
	MPUREG_ACCEL_XOUT_H     = 0x3B
	MPUREG_TEMP_OUT_H       = 0x41
	MPUREG_GYRO_XOUT_H      = 0x43
	MPUREG_EXT_SENS_DATA_00 = 0x49
	MPUREG_I2C_SLV0_DO      = 0x63
	MPUREG_USER_CTRL        = 0x6A
	MPUREG_PWR_MGMT_1       = 0x6B
	MPUREG_PWR_MGMT_2       = 0x6C
	MPUREG_WHOAMI           = 0x75
)

// Register bits and values.
const (
	BIT_H_RESET         = 0x80
	INV_CLK_PLL         = 0x01 // Auto-select PLL when the gyro is ready
	BIT_SENSORS_ENABLE  = 0x00 // PWR_MGMT_2: all accel and gyro axes on
	BIT_I2C_MST_EN      = 0x20
	BIT_I2C_MST_CLK_400 = 0x0D // I2C_MST_CTRL: 400 kHz master clock
	BIT_I2C_READ        = 0x80
	BIT_SLAVE_EN        = 0x80
	BIT_INT_PULSE_50US  = 0x00
	BIT_RAW_RDY_EN      = 0x01
	BIT_INT_DISABLE     = 0x00
	BIT_RAW_DATA_RDY    = 0x01

	// I2C_MST_STATUS bits
	BIT_PASS_THROUGH = 0x80
	BIT_SLV4_DONE    = 0x40
	BIT_LOST_ARB     = 0x20
	BIT_SLV4_NACK    = 0x10
	BIT_SLV3_NACK    = 0x08
	BIT_SLV2_NACK    = 0x04
	BIT_SLV1_NACK    = 0x02
	BIT_SLV0_NACK    = 0x01
)

// Identity register values of the accepted chip variants.
const (
	WHOAMI_MPU9250 = 0x71
	WHOAMI_MPU9255 = 0x73
)

// AK8963 magnetometer, reachable only through the MPU's I2C master.
const (
	AK8963_I2C_ADDR = 0x0C
	AK8963_WIA      = 0x00
	AK8963_HXL      = 0x03
	AK8963_ST2      = 0x09
	AK8963_CNTL1    = 0x0A
	AK8963_CNTL2    = 0x0B
	AK8963_ASAX     = 0x10

	WHOAMI_AK8963 = 0x48

	AKM_POWER_DOWN      = 0x00
	AKM_CONT_MEAS_8HZ   = 0x02 // 14-bit output
	AKM_CONT_MEAS_100HZ = 0x06 // 14-bit output
	AKM_FUSE_ROM        = 0x0F
	AKM_SOFT_RESET      = 0x01
	AKM_OVERFLOW        = 0x08 // ST2 HOFL
)

const (
	// I2CClock is the host bus speed the MPU-9250 is run at over I2C.
	I2CClock = 400000
	// SPIClock is the SPI clock used for register transactions. Writes to
	// configuration registers are limited to 1 MHz by the chip.
	SPIClock = 1000000

	spiReadFlag = 0x80

	// Burst read layout starting at ACCEL_XOUT_H: accel(6), temp(2), gyro(6),
	// then the EXT_SENS_DATA shadow of AK8963 HXL..ST2 (7).
	burstLen     = 21
	magShadowLen = 7
)
